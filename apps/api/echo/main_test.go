package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/hall"
	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/report"
	"github.com/dailyq/dailyq/core/settings"
	"github.com/dailyq/dailyq/core/stats"
	"github.com/dailyq/dailyq/core/student"
	logsvc "github.com/dailyq/dailyq/services/logger"
	"github.com/dailyq/dailyq/services/metrics"
	"github.com/dailyq/dailyq/storage/database/sqlxrepos"
	"github.com/dailyq/dailyq/testutil"
)

var today = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type testApp struct {
	t      *testing.T
	server *Server
	repos  *sqlxrepos.Repositories
	conf   *core.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	testutil.FreezeTime(t, today)

	conf := testutil.Config(t)
	repos := sqlxrepos.NewRepositories(testutil.PrepareDB(t, conf))
	clock := core.NewClock(conf)
	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)
	settingsSvc := settings.NewService(repos.Settings, conf)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logsvc.NewRollbarLogger(logsvc.NewConsole(io.Discard, conf), conf),
		Metrics:        metrics.New(),
		StudentSvc:     student.NewService(repos.Students, conf),
		QuestionSvc:    question.NewService(repos.Questions, clock),
		HallSvc:        hall.NewService(repos.Hall, settingsSvc, clock),
		SettingsSvc:    settingsSvc,
		AdminSvc:       admin.NewService(repos.Admins, validate),
		StatsSvc:       stats.NewService(repos.Stats, settingsSvc, clock),
		ReportSvc:      report.NewService(repos.Reports, clock),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{t: t, server: server, repos: repos, conf: conf}
}

// do sends a JSON request carrying the given session cookies.
func (app *testApp) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	app.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(app.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

// session returns the session cookie set by a response, nil when it was cleared.
func (app *testApp) session(rec *httptest.ResponseRecorder) *http.Cookie {
	app.t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == app.conf.Server.SessionCookie {
			if c.MaxAge < 0 || c.Value == "" {
				return nil
			}
			return c
		}
	}
	app.t.Fatalf("no session cookie in response")
	return nil
}

func (app *testApp) loginStudent(grade, classNum, studentNum int, name, pin string) *http.Cookie {
	app.t.Helper()
	rec := app.do(http.MethodPost, "/api/login", echoMap{
		"grade": grade, "class_num": classNum, "student_num": studentNum, "name": name, "pin": pin,
	})
	require.Equal(app.t, http.StatusOK, rec.Code, rec.Body.String())
	return app.session(rec)
}

func (app *testApp) loginAdmin(username, pwd string) *http.Cookie {
	app.t.Helper()
	rec := app.do(http.MethodPost, "/api/admin/login", echoMap{"username": username, "password": pwd})
	require.Equal(app.t, http.StatusOK, rec.Code, rec.Body.String())
	return app.session(rec)
}

type echoMap = map[string]interface{}

func decode(t *testing.T, rec *httptest.ResponseRecorder) echoMap {
	t.Helper()
	var data echoMap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data), rec.Body.String())
	return data
}
