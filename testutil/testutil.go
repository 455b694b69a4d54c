// Package testutil sets up databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/student"
	"github.com/dailyq/dailyq/storage/database"
)

// Config returns a test config whose data dir is removed when the test ends.
func Config(t *testing.T) *core.Config {
	t.Helper()
	return core.NewTestConfig(t.TempDir())
}

// PrepareDB opens a migrated sqlite database, closed when the test ends.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	t.Helper()
	c := Config(t)
	if len(conf) > 0 {
		c = conf[0]
	}
	db, err := database.Open(c)
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

// FreezeTime makes core.NowFunc return `now` until the test ends.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

// CreateStudent inserts a student; an empty pin leaves the PIN unset.
func CreateStudent(t *testing.T, repo student.Repository, grade, classNum, studentNum int, name, pin string) student.Student {
	t.Helper()
	stu := student.Student{
		Grade:      grade,
		ClassNum:   classNum,
		StudentNum: studentNum,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
	if pin != "" {
		hash, err := core.HashSecret(pin, 4)
		if err != nil {
			t.Fatalf("CreateStudent(): %v", err)
		}
		stu.PIN = null.StringFrom(pin)
		stu.PINHash = null.StringFrom(hash)
	}
	stu, err := repo.CreateStudent(context.Background(), stu)
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return stu
}

// CreateQuestion inserts a question posted on `date` (YYYY-MM-DD).
func CreateQuestion(t *testing.T, repo question.Repository, studentID int, date, content string) question.Question {
	t.Helper()
	createdAt, ok := core.ParseDate(date)
	if !ok {
		t.Fatalf("CreateQuestion(): bad date %q", date)
	}
	q, err := repo.CreateDailyQuestion(context.Background(), question.Question{
		StudentID:   studentID,
		Content:     content,
		CreatedDate: date,
		CreatedAt:   createdAt.Add(9 * time.Hour).UTC(),
	})
	if err != nil {
		t.Fatalf("CreateQuestion(): %v", err)
	}
	return q
}

// CreateAdmin inserts an admin with a bcrypt hashed password.
func CreateAdmin(t *testing.T, repo admin.Repository, username, pwd string) admin.Admin {
	t.Helper()
	hash, err := core.HashSecret(pwd, 4)
	if err != nil {
		t.Fatalf("CreateAdmin(): %v", err)
	}
	adm, err := repo.CreateAdmin(context.Background(), admin.Admin{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAdmin(): %v", err)
	}
	return adm
}
