package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

const (
	contextTokenKey = "userToken"
	tokenAudience   = "Ratiba"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Username     string    `json:"username,omitempty"`
	Name         string    `json:"name,omitempty"`
	Role         core.Role `json:"role,omitempty"`
}

func (c Claims) Identity() core.Identity {
	return core.Identity{ID: c.Subject, Username: c.Username, Role: c.Role}
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
	usrSvc    *user.Service
}

func newAuthenticator(conf *core.Config, usrSvc *user.Service) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		usrSvc: usrSvc,
	}
}

func (a *authenticator) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.jwtConfig)
}

func (a *authenticator) userClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Name:         usr.Name,
		Role:         usr.Role,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) authenticate(ctx context.Context, uname, pwd string) (*Claims, error) {
	usr, err := a.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !usr.CanLogin() {
		return nil, errAccountPending
	}
	usr, err = a.usrSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return a.userClaims(usr), nil
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := a.usrSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.CanLogin() {
		return "", errAccountPending
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.generateToken(a.userClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextIdentity(ctx echo.Context) (core.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Identity{}, err
	}
	return claims.Identity(), nil
}
