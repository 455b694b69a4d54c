package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyq/dailyq/testutil"
)

func Test_studentApi_login(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		body     echoMap
		wantCode int
		wantData echoMap
	}{
		{
			name: "missing fields", body: echoMap{"grade": 3, "name": "Mina"},
			wantCode: http.StatusBadRequest, wantData: echoMap{"error": "please fill in every field"},
		},
		{
			name: "zero class number", body: echoMap{"grade": 3, "class_num": 0, "student_num": 15, "name": "Mina"},
			wantCode: http.StatusBadRequest, wantData: echoMap{"error": "please fill in every field"},
		},
		{
			name: "float grade", body: echoMap{"grade": json.Number("3.0"), "class_num": json.Number("2.0"), "student_num": 15, "name": "Mina"},
			wantCode: http.StatusOK, wantData: echoMap{"need_pin_setup": true, "message": "Welcome! Please set a 4-digit PIN."},
		},
		{
			name: "not numeric", body: echoMap{"grade": "three", "class_num": 2, "student_num": 15, "name": "Mina"},
			wantCode: http.StatusBadRequest, wantData: echoMap{"error": "grade, class and number must be numbers"},
		},
		{
			name: "grade out of range", body: echoMap{"grade": 9, "class_num": 2, "student_num": 15, "name": "Mina"},
			wantCode: http.StatusBadRequest, wantData: echoMap{"error": "grade must be between 1 and 6"},
		},
		{
			name: "new student", body: echoMap{"grade": 3, "class_num": "2", "student_num": 15, "name": "Mina"},
			wantCode: http.StatusOK, wantData: echoMap{"need_pin_setup": true, "message": "Welcome! Please set a 4-digit PIN."},
		},
		{
			name: "bad PIN", body: echoMap{"grade": 3, "class_num": 2, "student_num": 15, "name": "Mina", "pin": "12"},
			wantCode: http.StatusBadRequest, wantData: echoMap{"error": "PIN must be exactly 4 digits"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/login", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantData, decode(t, rec))
		})
	}
}

func Test_studentApi_session(t *testing.T) {
	app := newTestApp(t)

	// first login registers the student
	rec := app.do(http.MethodPost, "/api/login", echoMap{"grade": 3, "class_num": 2, "student_num": 15, "name": "Mina", "pin": 1234})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)
	assert.Equal(t, true, data["success"])
	stu := data["student"].(map[string]interface{})
	assert.Equal(t, "Mina", stu["name"])
	cookie := app.session(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec = app.do(http.MethodGet, "/api/me", nil, cookie)
	assert.Equal(t, true, decode(t, rec)["logged_in"])

	// next login needs the PIN
	rec = app.do(http.MethodPost, "/api/login", echoMap{"grade": 3, "class_num": 2, "student_num": 15, "name": "Mina"})
	assert.Equal(t, echoMap{"need_pin": true, "message": "Please enter your PIN."}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/login", echoMap{"grade": 3, "class_num": 2, "student_num": 15, "name": "Mina", "pin": "9999"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, echoMap{"error": "incorrect PIN"}, decode(t, rec))

	rec = app.do(http.MethodPost, "/api/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, app.session(rec))

	rec = app.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, echoMap{"logged_in": false}, decode(t, rec))
}

func Test_studentApi_loginRequired(t *testing.T) {
	app := newTestApp(t)
	tampered := &http.Cookie{Name: app.conf.Server.SessionCookie, Value: "not.a.token"}

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/questions"},
		{http.MethodPost, "/api/questions"},
		{http.MethodPut, "/api/questions/1"},
		{http.MethodDelete, "/api/questions/1"},
		{http.MethodPost, "/api/questions/1/like"},
		{http.MethodGet, "/api/dates"},
		{http.MethodGet, "/api/topic"},
		{http.MethodGet, "/api/hall-of-fame"},
	} {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := app.do(r.method, r.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, echoMap{"error": "login required"}, decode(t, rec))

			rec = app.do(r.method, r.path, nil, tampered)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func Test_studentApi_questions(t *testing.T) {
	app := newTestApp(t)
	mina := app.loginStudent(3, 2, 15, "Mina", "1234")
	joon := app.loginStudent(4, 1, 3, "Joon", "5678")

	rec := app.do(http.MethodPost, "/api/questions", echoMap{"content": "   "}, mina)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please write your question", decode(t, rec)["error"])

	rec = app.do(http.MethodPost, "/api/questions", echoMap{"content": "Why do cats purr?"}, mina)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := int(decode(t, rec)["id"].(float64))

	rec = app.do(http.MethodPost, "/api/questions", echoMap{"content": "Another one"}, mina)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you already posted a question today, try again tomorrow", decode(t, rec)["error"])

	// someone else's question
	path := fmt.Sprintf("/api/questions/%d", id)
	rec = app.do(http.MethodPut, path, echoMap{"content": "hijacked"}, joon)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(http.MethodDelete, path, nil, joon)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPost, path+"/like", nil, joon)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echoMap{"success": true, "liked": true, "like_count": float64(1)}, decode(t, rec))

	rec = app.do(http.MethodPut, path, echoMap{"content": "Why do cats purr so loud?"}, mina)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodGet, "/api/questions?sort=likes", nil, joon)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)
	assert.Equal(t, "2024-03-04", data["date"])
	assert.Equal(t, false, data["already_posted_today"])
	assert.Equal(t, float64(1), data["total_count"])
	questions := data["questions"].([]interface{})
	require.Len(t, questions, 1)
	q := questions[0].(map[string]interface{})
	assert.Equal(t, "Why do cats purr so loud?", q["content"])
	assert.Equal(t, "3-2 Mina", q["author"])
	assert.Equal(t, true, q["liked_by_me"])
	assert.Equal(t, false, q["is_mine"])
	assert.Equal(t, "2024-03-04T10:00:00Z", q["created_at"])

	rec = app.do(http.MethodGet, "/api/questions?date=yesterday", nil, joon)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{
		"error":  "date must be a date formatted YYYY-MM-DD",
		"fields": map[string]interface{}{"date": "date must be a date formatted YYYY-MM-DD"},
	}, decode(t, rec))

	rec = app.do(http.MethodGet, "/api/dates", nil, joon)
	assert.Equal(t, echoMap{"dates": []interface{}{map[string]interface{}{"date": "2024-03-04", "count": float64(1)}}}, decode(t, rec))

	rec = app.do(http.MethodDelete, path, nil, mina)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(http.MethodPost, path+"/like", nil, joon)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, echoMap{"error": "question not found"}, decode(t, rec))

	rec = app.do(http.MethodDelete, "/api/questions/abc", nil, mina)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, echoMap{"error": "invalid id"}, decode(t, rec))
}

func Test_studentApi_topicAndHallOfFame(t *testing.T) {
	app := newTestApp(t)
	mina := app.loginStudent(3, 2, 15, "Mina", "1234")

	rec := app.do(http.MethodGet, "/api/topic", nil, mina)
	assert.Equal(t, echoMap{"topic": "Nature"}, decode(t, rec))

	rec = app.do(http.MethodGet, "/api/hall-of-fame", nil, mina)
	assert.Equal(t, echoMap{"ranking": []interface{}{}}, decode(t, rec))

	stu, err := app.repos.Students.QueryStudents(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, stu, 1)
	testutil.CreateQuestion(t, app.repos.Questions, stu[0].ID, "2024-03-01", "old question")

	rec = app.do(http.MethodGet, "/api/hall-of-fame", nil, mina)
	ranking := decode(t, rec)["ranking"].([]interface{})
	require.Len(t, ranking, 1)
	assert.Equal(t, map[string]interface{}{
		"id": float64(stu[0].ID), "grade": float64(3), "class_num": float64(2), "name": "Mina",
		"question_count": float64(1), "is_me": true, "rank": float64(1),
	}, ranking[0])
}
