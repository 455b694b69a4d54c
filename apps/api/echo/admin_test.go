package echoapi

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyq/dailyq/testutil"
)

func Test_adminApi_login(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")

	tests := []struct {
		name     string
		body     echoMap
		wantCode int
		wantErr  string
	}{
		{"missing password", echoMap{"username": "teacher"}, http.StatusBadRequest, "please enter your username and password"},
		{"wrong password", echoMap{"username": "teacher", "password": "nope"}, http.StatusUnauthorized, "incorrect username or password"},
		{"unknown user", echoMap{"username": "ghost", "password": "s3cret-Pass"}, http.StatusUnauthorized, "incorrect username or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/admin/login", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, echoMap{"error": tt.wantErr}, decode(t, rec))
		})
	}

	cookie := app.loginAdmin("teacher", "s3cret-Pass")
	rec := app.do(http.MethodGet, "/api/admin/me", nil, cookie)
	assert.Equal(t, echoMap{"logged_in": true, "username": "teacher"}, decode(t, rec))
}

func Test_adminApi_adminRequired(t *testing.T) {
	app := newTestApp(t)
	mina := app.loginStudent(3, 2, 15, "Mina", "1234")

	for _, path := range []string{"/api/admin/questions", "/api/admin/stats", "/api/admin/students", "/api/admin/export/questions"} {
		rec := app.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, echoMap{"error": "admin login required"}, decode(t, rec))

		rec = app.do(http.MethodGet, path, nil, mina)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "a student session is not an admin session")
	}
}

func Test_adminApi_logoutKeepsStudent(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")

	mina := app.loginStudent(3, 2, 15, "Mina", "1234")
	rec := app.do(http.MethodPost, "/api/admin/login", echoMap{"username": "teacher", "password": "s3cret-Pass"}, mina)
	require.Equal(t, http.StatusOK, rec.Code)
	both := app.session(rec)

	rec = app.do(http.MethodGet, "/api/me", nil, both)
	assert.Equal(t, true, decode(t, rec)["logged_in"])

	rec = app.do(http.MethodPost, "/api/admin/logout", nil, both)
	require.Equal(t, http.StatusOK, rec.Code)
	studentOnly := app.session(rec)
	require.NotNil(t, studentOnly)

	rec = app.do(http.MethodGet, "/api/me", nil, studentOnly)
	assert.Equal(t, true, decode(t, rec)["logged_in"])
	rec = app.do(http.MethodGet, "/api/admin/me", nil, studentOnly)
	assert.Equal(t, echoMap{"logged_in": false}, decode(t, rec))

	// without a student the cookie goes away
	admOnly := app.loginAdmin("teacher", "s3cret-Pass")
	rec = app.do(http.MethodPost, "/api/admin/logout", nil, admOnly)
	assert.Nil(t, app.session(rec))
}

func Test_adminApi_questions(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")
	adm := app.loginAdmin("teacher", "s3cret-Pass")

	mina := testutil.CreateStudent(t, app.repos.Students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, app.repos.Students, 4, 1, 3, "Joon", "")
	q1 := testutil.CreateQuestion(t, app.repos.Questions, mina.ID, "2024-03-04", "Why is the sky blue?")
	q2 := testutil.CreateQuestion(t, app.repos.Questions, joon.ID, "2024-03-04", "Do fish sleep?")

	rec := app.do(http.MethodDelete, fmt.Sprintf("/api/admin/questions/%d", q1.ID), nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/admin/questions?date=2024-03-04", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)
	assert.Equal(t, "2024-03-04", data["date"])
	questions := data["questions"].([]interface{})
	require.Len(t, questions, 2, "deleted questions are listed too")
	deleted := map[float64]bool{}
	for _, q := range questions {
		q := q.(map[string]interface{})
		deleted[q["id"].(float64)] = q["is_deleted"].(bool)
	}
	assert.Equal(t, map[float64]bool{float64(q1.ID): true, float64(q2.ID): false}, deleted)

	rec = app.do(http.MethodPost, fmt.Sprintf("/api/admin/questions/%d/restore", q1.ID), nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodPost, "/api/admin/questions/bulk-delete", echoMap{"ids": []int{q1.ID, q2.ID}}, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echoMap{"success": true, "count": float64(2), "message": "2 question(s) deleted."}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/questions/bulk-restore", echoMap{"ids": []int{q2.ID}}, adm)
	assert.Equal(t, echoMap{"success": true, "count": float64(1), "message": "1 question(s) restored."}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/questions/bulk-delete", echoMap{"ids": []int{}}, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{"error": "please select at least one question"}, decode(t, rec))

	rec = app.do(http.MethodGet, "/api/admin/stats", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, float64(2), stats["total_students"])
	assert.Equal(t, float64(1), stats["total_questions"])
	assert.Equal(t, float64(1), stats["today_questions"])
}

func Test_adminApi_students(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")
	adm := app.loginAdmin("teacher", "s3cret-Pass")

	mina := testutil.CreateStudent(t, app.repos.Students, 3, 2, 15, "Mina", "1234")
	joon := testutil.CreateStudent(t, app.repos.Students, 4, 1, 3, "Joon", "")
	testutil.CreateStudent(t, app.repos.Students, 4, 1, 4, "Sora", "")

	rec := app.do(http.MethodGet, "/api/admin/students", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	students := decode(t, rec)["students"].([]interface{})
	require.Len(t, students, 3)
	first := students[0].(map[string]interface{})
	assert.Equal(t, "Mina", first["name"])
	assert.Equal(t, "1234", first["pin"])
	assert.Equal(t, true, first["has_pin"])
	assert.Equal(t, false, students[1].(map[string]interface{})["has_pin"])

	rec = app.do(http.MethodPost, "/api/admin/generate-pins", echoMap{"target": "no_pin"}, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, "Generated PINs for 2 student(s).", data["message"])
	for _, a := range data["students"].([]interface{}) {
		assert.Regexp(t, `^[1-9]\d{3}$`, a.(map[string]interface{})["pin"])
	}

	rec = app.do(http.MethodPost, "/api/admin/generate-pins", echoMap{"target": "everyone"}, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{"error": "invalid target"}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/set-pins", echoMap{"student_ids": []int{mina.ID, joon.ID}, "pin": 4321}, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echoMap{"success": true, "count": float64(2), "message": "Set the PIN of 2 student(s) to 4321."}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/set-pins", echoMap{"student_ids": []int{mina.ID}, "pin": "43"}, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPost, fmt.Sprintf("/api/admin/reset-pin/%d", mina.ID), nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echoMap{"success": true, "message": "The PIN of 3-2 Mina was reset."}, decode(t, rec))

	// the next login asks for a new PIN
	rec = app.do(http.MethodPost, "/api/login", echoMap{"grade": 3, "class_num": 2, "student_num": 15, "name": "Mina"})
	assert.Equal(t, true, decode(t, rec)["need_pin_setup"])

	rec = app.do(http.MethodPost, "/api/admin/reset-pin/999", nil, adm)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, echoMap{"error": "student not found"}, decode(t, rec))
}

func Test_adminApi_topicAndHall(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")
	adm := app.loginAdmin("teacher", "s3cret-Pass")
	mina := testutil.CreateStudent(t, app.repos.Students, 3, 2, 15, "Mina", "1234")
	testutil.CreateQuestion(t, app.repos.Questions, mina.ID, "2024-03-01", "old question")

	rec := app.do(http.MethodPost, "/api/admin/topic", echoMap{"topic": "  Space  "}, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echoMap{"success": true, "topic": "Space", "message": `The topic is now "Space".`}, decode(t, rec))

	rec = app.do(http.MethodGet, "/api/admin/topic", nil, adm)
	assert.Equal(t, echoMap{"topic": "Space"}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/topic", echoMap{"topic": " "}, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{"error": "please enter a topic"}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/admin/reset-hall", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The Hall of Fame was reset. Questions are counted again from 2024-03-04.", decode(t, rec)["message"])

	stu := app.loginStudent(3, 2, 15, "Mina", "1234")
	rec = app.do(http.MethodGet, "/api/hall-of-fame", nil, stu)
	assert.Equal(t, echoMap{"ranking": []interface{}{}}, decode(t, rec))
}

func Test_adminApi_export(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateAdmin(t, app.repos.Admins, "teacher", "s3cret-Pass")
	adm := app.loginAdmin("teacher", "s3cret-Pass")
	mina := testutil.CreateStudent(t, app.repos.Students, 3, 2, 15, "Mina", "1234")
	testutil.CreateQuestion(t, app.repos.Questions, mina.ID, "2024-03-02", `Why do "cats" purr?`)

	rec := app.do(http.MethodGet, "/api/admin/export/questions?start=2024-03-01&end=2024-03-04", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=questions_2024-03-01_2024-03-04.csv", rec.Header().Get("Content-Disposition"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\ufeff"), "excel needs the BOM")
	assert.Contains(t, body, `"Why do ""cats"" purr?"`)

	rec = app.do(http.MethodGet, "/api/admin/export/students", nil, adm)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=students_2020-01-01_2024-03-04.csv", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Mina")

	rec = app.do(http.MethodGet, "/api/admin/export/questions?start=2024-03-05&end=2024-03-01", nil, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{"error": "start must not be after end"}, decode(t, rec))

	rec = app.do(http.MethodGet, "/api/admin/export/questions?start=March", nil, adm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_pages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/static/js/app.js", "/static/css/app.css", "/metrics"} {
		rec := app.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	pages := map[string]string{
		"/":      "<title>DailyQ</title>",
		"/admin": "<title>DailyQ - Admin</title>",
		"/hall":  "<title>DailyQ - Hall of Fame</title>",
	}
	for path, title := range pages {
		rec := app.do(http.MethodGet, path, nil)
		if assert.Equal(t, http.StatusOK, rec.Code, path) {
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html", path)
			assert.Contains(t, rec.Body.String(), title, path)
		}
	}
	rec := app.do(http.MethodGet, "/admin/", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "trailing slashes are removed")
}
