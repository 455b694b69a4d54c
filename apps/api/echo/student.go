package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core/student"
)

type studentApi struct {
	*Server
}

func registerStudentAPI(g *echo.Group, s *Server) {
	api := studentApi{Server: s}

	// un-authed endpoints
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.GET("/me", api.me)

	// authed endpoints
	ag := g.Group("", studentRequired)
	ag.GET("/questions", api.listQuestions)
	ag.POST("/questions", api.createQuestion)
	ag.PUT("/questions/:id", api.updateQuestion)
	ag.DELETE("/questions/:id", api.deleteQuestion)
	ag.POST("/questions/:id/like", api.toggleLike)
	ag.GET("/dates", api.listDates)
	ag.GET("/topic", api.topic)
	ag.GET("/hall-of-fame", api.hallOfFame)
}

// Handlers

func (api *studentApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}

	res, err := api.deps.StudentSvc.Login(ctx.Request().Context(), student.Credentials{
		Grade:      string(data.Grade),
		ClassNum:   string(data.ClassNum),
		StudentNum: string(data.StudentNum),
		Name:       data.Name,
		PIN:        string(data.PIN),
	})
	api.countLogin("student", res.Status, err)
	if err != nil {
		return err
	}

	switch res.Status {
	case student.StatusNeedPINSetup:
		return ctx.JSON(http.StatusOK, echo.Map{"need_pin_setup": true, "message": res.Message})
	case student.StatusNeedPIN:
		return ctx.JSON(http.StatusOK, echo.Map{"need_pin": true, "message": res.Message})
	}

	claims := getContextClaims(ctx)
	claims.Student = newStudentIdentity(res.Student)
	if err = api.sessions.save(ctx, claims); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "student": claims.Student})
}

// logout ends the whole session, admin identity included.
func (api *studentApi) logout(ctx echo.Context) error {
	api.sessions.clear(ctx)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *studentApi) me(ctx echo.Context) error {
	claims := getContextClaims(ctx)
	if claims.Student == nil {
		return ctx.JSON(http.StatusOK, echo.Map{"logged_in": false})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"logged_in": true, "student": claims.Student})
}

func (api *studentApi) listQuestions(ctx echo.Context) error {
	var q DateQuery
	if err := api.bindQuery(ctx, &q); err != nil {
		return err
	}
	me := getContextClaims(ctx).Student

	listing, err := api.deps.QuestionSvc.ListForDate(ctx.Request().Context(), me.ID, q.Date, q.sort())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listing)
}

func (api *studentApi) createQuestion(ctx echo.Context) error {
	var data ContentRequest
	if err := bindBody(ctx, &data); err != nil {
		return err
	}
	me := getContextClaims(ctx).Student

	q, err := api.deps.QuestionSvc.Create(ctx.Request().Context(), me.ID, data.Content)
	if err != nil {
		return err
	}
	if api.deps.Metrics != nil {
		api.deps.Metrics.QuestionsPosted.Inc()
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Your question was posted!", "id": q.ID})
}

func (api *studentApi) updateQuestion(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data ContentRequest
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	me := getContextClaims(ctx).Student

	if err = api.deps.QuestionSvc.Update(ctx.Request().Context(), me.ID, id, data.Content); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Your question was updated!"})
}

func (api *studentApi) deleteQuestion(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	me := getContextClaims(ctx).Student

	if err = api.deps.QuestionSvc.Delete(ctx.Request().Context(), me.ID, id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Your question was deleted."})
}

func (api *studentApi) toggleLike(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	me := getContextClaims(ctx).Student

	res, err := api.deps.QuestionSvc.ToggleLike(ctx.Request().Context(), me.ID, id)
	if err != nil {
		return err
	}
	if api.deps.Metrics != nil {
		api.deps.Metrics.LikesToggled.WithLabelValues(boolLabel(res.Liked)).Inc()
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "liked": res.Liked, "like_count": res.LikeCount})
}

func (api *studentApi) listDates(ctx echo.Context) error {
	dates, err := api.deps.QuestionSvc.Dates(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"dates": dates})
}

func (api *studentApi) topic(ctx echo.Context) error {
	topic, err := api.deps.SettingsSvc.Topic(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"topic": topic})
}

func (api *studentApi) hallOfFame(ctx echo.Context) error {
	me := getContextClaims(ctx).Student
	ranking, err := api.deps.HallSvc.Leaderboard(ctx.Request().Context(), me.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"ranking": ranking})
}

// Helpers

func (s *Server) countLogin(kind, status string, err error) {
	if s.deps.Metrics == nil {
		return
	}
	outcome := status
	if err != nil {
		outcome = "failed"
	}
	s.deps.Metrics.Logins.WithLabelValues(kind, outcome).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
