package stats

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/settings"
)

const (
	DailyLimit       = 14
	TopQuestionLimit = 10
)

type (
	Totals struct {
		Students       int `db:"total_students"`
		Questions      int `db:"total_questions"`
		Likes          int `db:"total_likes"`
		TodayQuestions int `db:"today_questions"`
	}

	GradeStat struct {
		Grade         int `json:"grade" db:"grade"`
		StudentCount  int `json:"student_count" db:"student_count"`
		QuestionCount int `json:"question_count" db:"question_count"`
	}

	TopQuestion struct {
		Content   string `json:"content" db:"content"`
		Author    string `json:"author" db:"-"`
		Grade     int    `json:"-" db:"grade"`
		ClassNum  int    `json:"-" db:"class_num"`
		Name      string `json:"-" db:"name"`
		LikeCount int    `json:"like_count" db:"like_count"`
	}

	Overview struct {
		TotalStudents  int                  `json:"total_students"`
		TotalQuestions int                  `json:"total_questions"`
		TotalLikes     int                  `json:"total_likes"`
		TodayQuestions int                  `json:"today_questions"`
		DailyStats     []question.DateCount `json:"daily_stats"`
		GradeStats     []GradeStat          `json:"grade_stats"`
		TopQuestions   []TopQuestion        `json:"top_questions"`
	}

	Repository interface {
		QueryTotals(ctx context.Context, today string) (Totals, error)
		QueryDateCounts(ctx context.Context, limit int) ([]question.DateCount, error)
		QueryGradeStats(ctx context.Context) ([]GradeStat, error)
		// QueryTopQuestions returns liked, non-deleted questions created on or after `since`.
		QueryTopQuestions(ctx context.Context, since string, limit int) ([]TopQuestion, error)
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

func (svc *Service) Overview(ctx context.Context) (Overview, error) {
	totals, err := svc.repo.QueryTotals(ctx, svc.clock.Today())
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying totals")
	}
	daily, err := svc.repo.QueryDateCounts(ctx, DailyLimit)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying daily stats")
	}
	grades, err := svc.repo.QueryGradeStats(ctx)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying grade stats")
	}
	since, err := svc.settings.HallResetDate(ctx)
	if err != nil {
		return Overview{}, err
	}
	top, err := svc.repo.QueryTopQuestions(ctx, since, TopQuestionLimit)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying top questions")
	}
	for i := range top {
		top[i].Author = fmt.Sprintf("%d-%d %s", top[i].Grade, top[i].ClassNum, top[i].Name)
	}

	if daily == nil {
		daily = []question.DateCount{}
	}
	if grades == nil {
		grades = []GradeStat{}
	}
	if top == nil {
		top = []TopQuestion{}
	}
	return Overview{
		TotalStudents:  totals.Students,
		TotalQuestions: totals.Questions,
		TotalLikes:     totals.Likes,
		TodayQuestions: totals.TodayQuestions,
		DailyStats:     daily,
		GradeStats:     grades,
		TopQuestions:   top,
	}, nil
}
