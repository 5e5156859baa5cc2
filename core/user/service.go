package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// LunchChecker runs `save` only when the lunch settings do not collide with the teacher's lectures.
	LunchChecker interface {
		SaveLunchConfig(ctx context.Context, teacherID string, cfg timetable.LunchConfig, save func(ctx context.Context) error) error
	}

	Service struct {
		repo  Repository
		lunch LunchChecker
	}
)

func NewService(repo Repository, lunch LunchChecker) *Service {
	return &Service{repo: repo, lunch: lunch}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname string) error {
	_, err := svc.repo.GetUserByUsername(ctx, uname)
	switch {
	case err == nil:
		return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.clean()
	if err := svc.checkUniqueness(ctx, nu.Username); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:         uuid.New().String(),
		Name:       nu.Name,
		Username:   nu.Username,
		Email:      nu.Email,
		Role:       nu.Role,
		IsApproved: nu.IsApproved || nu.Role != core.RoleTeacher,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateLunchBreak changes the calling teacher's lunch-break settings.
func (svc *Service) UpdateLunchBreak(ctx context.Context, caller core.Identity, lu LunchUpdate) (User, error) {
	if !caller.IsTeacher() {
		return User{}, timetable.ErrForbidden
	}
	usr, err := svc.repo.GetUserByID(ctx, caller.ID)
	if err != nil {
		return User{}, err
	}
	if !usr.IsTeacher() {
		return User{}, timetable.ErrForbidden
	}

	cfg := usr.LunchConfig
	if lu.Start != nil {
		if cfg.Start, err = cleanLunchBound(*lu.Start, "Invalid lunch break start time."); err != nil {
			return User{}, err
		}
	}
	if lu.End != nil {
		if cfg.End, err = cleanLunchBound(*lu.End, "Invalid lunch break end time."); err != nil {
			return User{}, err
		}
	}
	if cfg.Start != "" && cfg.End != "" {
		if !(timetable.Window{Start: cfg.Start, End: cfg.End}).Valid() {
			return User{}, &timetable.Error{Kind: timetable.KindInvalidTimeRange, Detail: "Lunch break start must be before end."}
		}
	}
	if lu.Overrides != nil {
		cfg.Overrides = timetable.NormalizeOverrides(lu.Overrides)
	}

	usr.LunchConfig = cfg
	usr.UpdatedAt = time.Now().UTC()
	err = svc.lunch.SaveLunchConfig(ctx, usr.ID, cfg, func(ctx context.Context) error {
		var sErr error
		usr, sErr = svc.repo.UpdateUser(ctx, usr)
		return sErr
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// cleanLunchBound accepts "" (clear) or a strict HH:MM time.
func cleanLunchBound(s, detail string) (string, error) {
	s = core.CleanString(s)
	if s == "" {
		return "", nil
	}
	if _, err := timetable.ParseTime(s); err != nil {
		return "", &timetable.Error{Kind: timetable.KindInvalidTimeFormat, Detail: detail}
	}
	return s, nil
}
