package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountPending       = echo.NewHTTPError(http.StatusForbidden, "account pending approval")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errConcurrentUpdate     = echo.NewHTTPError(http.StatusConflict, "the timetable was modified concurrently, please retry")
)

// scheduleErrorResponse renders a timetable.Error.
type scheduleErrorResponse struct {
	Error            string              `json:"error"`
	Kind             timetable.ErrorKind `json:"kind"`
	ConflictingEntry *timetable.Entry    `json:"conflicting_entry,omitempty"`
	LunchBreak       *timetable.Window   `json:"lunch_break,omitempty"`
}

func scheduleErrorStatus(kind timetable.ErrorKind) int {
	switch kind {
	case timetable.KindScheduleConflict, timetable.KindLunchBreakConflict:
		return http.StatusConflict
	case timetable.KindNotFound:
		return http.StatusNotFound
	case timetable.KindForbidden:
		return http.StatusForbidden
	default: // InvalidTimeFormat, InvalidTimeRange, NoChangesProvided
		return http.StatusBadRequest
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		// sentinels first: they may sit under several layers of wrapping
		switch {
		case errors.Is(err, timetable.ErrStaleVersion):
			err = errConcurrentUpdate
		case errors.Is(err, user.ErrNotFound):
			err = errHttpNotFound
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *timetable.Error:
			code = scheduleErrorStatus(origErr.Kind)
			message = scheduleErrorResponse{
				Error:            origErr.Error(),
				Kind:             origErr.Kind,
				ConflictingEntry: origErr.Conflicting,
				LunchBreak:       origErr.LunchBreak,
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var caller core.Identity
			if id, cErr := getContextIdentity(ctx); cErr == nil {
				caller = id
			}
			logger.Error(msg, errors.Wrap(err, msg), caller)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
