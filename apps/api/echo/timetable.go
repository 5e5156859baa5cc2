package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	exportsvc "github.com/trezcool/ratiba/services/export"
)

const (
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

type timetableApi struct {
	svc      *timetable.Service
	validate *validator.Validate
	appName  string
}

func registerTimetableAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *timetable.Service, validate *validator.Validate, conf *core.Config) {
	api := timetableApi{
		svc:      svc,
		validate: validate,
		appName:  conf.AppName,
	}

	tg := g.Group("/timetable", jwt)
	tg.GET("", api.query)
	tg.GET("/export", api.export)
	tg.POST("", api.create, roleMiddleware(core.RoleTeacher))
	tg.PUT("/:id", api.update, roleMiddleware(core.RoleTeacher))
	tg.DELETE("/:id", api.destroy, roleMiddleware(core.RoleTeacher))
}

func scopeParam(ctx echo.Context) timetable.Scope {
	if timetable.Scope(ctx.QueryParam("scope")) == timetable.ScopeAll {
		return timetable.ScopeAll
	}
	return timetable.ScopeDefault
}

// Handlers

func (api *timetableApi) query(ctx echo.Context) error {
	caller, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	views, err := api.svc.List(ctx.Request().Context(), caller, scopeParam(ctx))
	if err != nil {
		return errors.Wrap(err, "listing timetable")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *timetableApi) export(ctx echo.Context) error {
	caller, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	format := core.CleanString(ctx.QueryParam("format"), true /* lower */)
	if format == "" {
		format = formatXLSX
	}
	if format != formatXLSX && format != formatPDF {
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "must be one of xlsx or pdf"})
	}

	views, err := api.svc.List(ctx.Request().Context(), caller, scopeParam(ctx))
	if err != nil {
		return errors.Wrap(err, "listing timetable")
	}
	week := timetable.NewWeek(views)

	var buf bytes.Buffer
	contentType := exportsvc.ContentTypeXLSX
	if format == formatPDF {
		contentType = exportsvc.ContentTypePDF
		err = exportsvc.WritePDF(&buf, week, api.appName+" Timetable")
	} else {
		err = exportsvc.WriteXLSX(&buf, week)
	}
	if err != nil {
		return errors.Wrapf(err, "exporting timetable to %s", format)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "timetable."+format))
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (api *timetableApi) create(ctx echo.Context) error {
	caller, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	var data timetable.NewEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Create(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating timetable entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *timetableApi) update(ctx echo.Context) error {
	caller, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	var data timetable.EntryPatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EntryPatch")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Update(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating timetable entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *timetableApi) destroy(ctx echo.Context) error {
	caller, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	if err = api.svc.Delete(ctx.Request().Context(), caller, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
