package hall

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/settings"
)

// Entry is one student of the Hall of Fame.
type Entry struct {
	ID            int    `json:"id" db:"id"`
	Grade         int    `json:"grade" db:"grade"`
	ClassNum      int    `json:"class_num" db:"class_num"`
	StudentNum    int    `json:"-" db:"student_num"`
	Name          string `json:"name" db:"name"`
	QuestionCount int    `json:"question_count" db:"question_count"`
	IsMe          bool   `json:"is_me" db:"-"`
	Rank          int    `json:"rank" db:"-"`
}

type (
	Repository interface {
		// QueryQuestionCounts counts non-deleted questions per student created on or after `since`.
		// Students without questions are left out.
		QueryQuestionCounts(ctx context.Context, since string) ([]Entry, error)
	}

	Service struct {
		repo     Repository
		settings *settings.Service
		clock    core.Clock
	}
)

func NewService(repo Repository, settingsSvc *settings.Service, clock core.Clock) *Service {
	return &Service{repo: repo, settings: settingsSvc, clock: clock}
}

// Rank orders entries by question count (desc) then grade, class and number (asc),
// and gives tied counts the same rank: 1, 1, 3, ...
func Rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.QuestionCount != b.QuestionCount {
			return a.QuestionCount > b.QuestionCount
		}
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.ClassNum != b.ClassNum {
			return a.ClassNum < b.ClassNum
		}
		return a.StudentNum < b.StudentNum
	})

	rank := 1
	for i := range entries {
		if i > 0 && entries[i].QuestionCount < entries[i-1].QuestionCount {
			rank = i + 1
		}
		entries[i].Rank = rank
	}
	return entries
}

// Leaderboard ranks students by questions posted since the last reset.
func (svc *Service) Leaderboard(ctx context.Context, viewerID int) ([]Entry, error) {
	since, err := svc.settings.HallResetDate(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := svc.repo.QueryQuestionCounts(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying question counts")
	}
	entries = Rank(entries)
	for i := range entries {
		entries[i].IsMe = entries[i].ID == viewerID
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Reset starts counting again from today and returns that day.
func (svc *Service) Reset(ctx context.Context) (string, error) {
	today := svc.clock.Today()
	if err := svc.settings.Set(ctx, settings.KeyHallResetDate, today); err != nil {
		return "", err
	}
	return today, nil
}
