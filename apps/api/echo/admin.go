package echoapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/report"
)

type adminApi struct {
	*Server
}

func registerAdminAPI(g *echo.Group, s *Server) {
	api := adminApi{Server: s}

	// un-authed endpoints
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.GET("/me", api.me)

	// authed endpoints
	ag := g.Group("", adminRequired)
	ag.GET("/questions", api.listQuestions)
	ag.DELETE("/questions/:id", api.deleteQuestion)
	ag.POST("/questions/:id/restore", api.restoreQuestion)
	ag.POST("/questions/bulk-delete", api.bulkDelete)
	ag.POST("/questions/bulk-restore", api.bulkRestore)
	ag.GET("/stats", api.stats)
	ag.GET("/students", api.listStudents)
	ag.POST("/reset-pin/:id", api.resetPIN)
	ag.POST("/generate-pins", api.generatePINs)
	ag.POST("/set-pins", api.setPINs)
	ag.POST("/reset-hall", api.resetHall)
	ag.GET("/topic", api.topic)
	ag.POST("/topic", api.setTopic)
	ag.GET("/export/questions", api.exportQuestions)
	ag.GET("/export/students", api.exportStudents)
}

// Handlers

func (api *adminApi) login(ctx echo.Context) error {
	var data AdminLoginRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}

	adm, err := api.deps.AdminSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	api.countLogin("admin", "ok", err)
	if err != nil {
		return err
	}

	claims := getContextClaims(ctx)
	claims.Admin = newAdminIdentity(adm)
	if err = api.sessions.save(ctx, claims); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "username": adm.Username})
}

// logout only drops the admin identity; a student logged in on the same browser stays logged in.
func (api *adminApi) logout(ctx echo.Context) error {
	claims := getContextClaims(ctx)
	claims.Admin = nil
	if err := api.sessions.save(ctx, claims); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *adminApi) me(ctx echo.Context) error {
	claims := getContextClaims(ctx)
	if claims.Admin == nil {
		return ctx.JSON(http.StatusOK, echo.Map{"logged_in": false})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"logged_in": true, "username": claims.Admin.Username})
}

func (api *adminApi) listQuestions(ctx echo.Context) error {
	var q DateQuery
	if err := api.bindQuery(ctx, &q); err != nil {
		return err
	}
	listing, err := api.deps.QuestionSvc.AdminListForDate(ctx.Request().Context(), q.Date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listing)
}

func (api *adminApi) setDeleted(ctx echo.Context, deleted bool) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if _, err = api.deps.QuestionSvc.SetDeleted(ctx.Request().Context(), deleted, id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *adminApi) deleteQuestion(ctx echo.Context) error {
	return api.setDeleted(ctx, true)
}

func (api *adminApi) restoreQuestion(ctx echo.Context) error {
	return api.setDeleted(ctx, false)
}

func (api *adminApi) bulkSetDeleted(ctx echo.Context, deleted bool, verb string) error {
	var data IDsRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	n, err := api.deps.QuestionSvc.SetDeleted(ctx.Request().Context(), deleted, data.IDs...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   n,
		"message": fmt.Sprintf("%d question(s) %s.", len(data.IDs), verb),
	})
}

func (api *adminApi) bulkDelete(ctx echo.Context) error {
	return api.bulkSetDeleted(ctx, true, "deleted")
}

func (api *adminApi) bulkRestore(ctx echo.Context) error {
	return api.bulkSetDeleted(ctx, false, "restored")
}

func (api *adminApi) stats(ctx echo.Context) error {
	overview, err := api.deps.StatsSvc.Overview(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api *adminApi) listStudents(ctx echo.Context) error {
	students, err := api.deps.StudentSvc.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students})
}

func (api *adminApi) resetPIN(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	stu, err := api.deps.StudentSvc.ResetPIN(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("The PIN of %s was reset.", stu.Label()),
	})
}

func (api *adminApi) generatePINs(ctx echo.Context) error {
	var data GeneratePINsRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	assignments, err := api.deps.StudentSvc.GeneratePINs(ctx.Request().Context(), data.Target)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"count":    len(assignments),
		"students": assignments,
		"message":  fmt.Sprintf("Generated PINs for %d student(s).", len(assignments)),
	})
}

func (api *adminApi) setPINs(ctx echo.Context) error {
	var data SetPINsRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	pin := core.CleanString(string(data.PIN))
	n, err := api.deps.StudentSvc.SetPINs(ctx.Request().Context(), data.StudentIDs, pin)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   n,
		"message": fmt.Sprintf("Set the PIN of %d student(s) to %s.", n, pin),
	})
}

func (api *adminApi) resetHall(ctx echo.Context) error {
	since, err := api.deps.HallSvc.Reset(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": fmt.Sprintf("The Hall of Fame was reset. Questions are counted again from %s.", since),
	})
}

func (api *adminApi) topic(ctx echo.Context) error {
	topic, err := api.deps.SettingsSvc.Topic(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"topic": topic})
}

func (api *adminApi) setTopic(ctx echo.Context) error {
	var data TopicRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	topic, err := api.deps.SettingsSvc.SetTopic(ctx.Request().Context(), data.Topic)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"topic":   topic,
		"message": fmt.Sprintf("The topic is now %q.", topic),
	})
}

func (api *adminApi) exportQuestions(ctx echo.Context) error {
	return api.export(ctx, report.QuestionsFilename, api.deps.ReportSvc.WriteQuestions)
}

func (api *adminApi) exportStudents(ctx echo.Context) error {
	return api.export(ctx, report.StudentsFilename, api.deps.ReportSvc.WriteStudents)
}

// Helpers

type reportWriter func(ctx context.Context, w io.Writer, rng core.DateRange) error

func (api *adminApi) export(ctx echo.Context, filename func(core.DateRange) string, write reportWriter) error {
	var q RangeQuery
	if err := api.bindQuery(ctx, &q); err != nil {
		return err
	}
	rng, err := api.deps.ReportSvc.Range(q.Start, q.End)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = write(ctx.Request().Context(), &buf, rng); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename(rng)))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
