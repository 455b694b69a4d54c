package question

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("question not found")
	ErrAlreadyPosted  = core.Invalid("you already posted a question today, try again tomorrow")
	ErrEmptyContent   = core.Invalid("please write your question")
	ErrContentTooLong = core.Invalid(fmt.Sprintf("questions must be at most %d characters", MaxContentLen))
	ErrNotOwnerEdit   = core.NewForbiddenError("you can only edit your own questions")
	ErrNotOwnerDelete = core.NewForbiddenError("you can only delete your own questions")
	ErrNoIDs          = core.Invalid("please select at least one question")
)

type (
	Repository interface {
		// GetActiveQuestion returns ErrNotFound for missing or soft-deleted questions.
		GetActiveQuestion(ctx context.Context, id int) (Question, error)
		HasQuestionOn(ctx context.Context, studentID int, date string) (bool, error)
		// CreateDailyQuestion returns ErrAlreadyPosted when the student already
		// has a non-deleted question on q.CreatedDate.
		CreateDailyQuestion(ctx context.Context, q Question) (Question, error)
		UpdateQuestionContent(ctx context.Context, id int, content string) error
		SetQuestionsDeleted(ctx context.Context, deleted bool, ids ...int) (int, error)
		ToggleLike(ctx context.Context, questionID, studentID int) (LikeResult, error)
		QueryViews(ctx context.Context, viewerID int, date string, sort Sort) ([]View, error)
		QueryAdminViews(ctx context.Context, date string) ([]AdminView, error)
		QueryDateCounts(ctx context.Context, limit int) ([]DateCount, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// CleanContent trims the content and checks its length.
func CleanContent(content string) (string, error) {
	content = core.CleanString(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if core.CharCount(content) > MaxContentLen {
		return "", ErrContentTooLong
	}
	return content, nil
}

// Create posts today's question for a student.
func (svc *Service) Create(ctx context.Context, studentID int, content string) (Question, error) {
	content, err := CleanContent(content)
	if err != nil {
		return Question{}, err
	}
	now := svc.clock.Now()
	q, err := svc.repo.CreateDailyQuestion(ctx, Question{
		StudentID:   studentID,
		Content:     content,
		CreatedDate: now.Format(core.DateLayout),
		CreatedAt:   now.UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrAlreadyPosted {
			return Question{}, ErrAlreadyPosted
		}
		return Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

// ownQuestion loads an active question and checks that `studentID` wrote it.
func (svc *Service) ownQuestion(ctx context.Context, studentID, id int, notOwner error) (Question, error) {
	q, err := svc.repo.GetActiveQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if q.StudentID != studentID {
		return Question{}, notOwner
	}
	return q, nil
}

func (svc *Service) Update(ctx context.Context, studentID, id int, content string) error {
	content, err := CleanContent(content)
	if err != nil {
		return err
	}
	if _, err = svc.ownQuestion(ctx, studentID, id, ErrNotOwnerEdit); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.UpdateQuestionContent(ctx, id, content), "updating question")
}

// Delete soft deletes a student's own question.
func (svc *Service) Delete(ctx context.Context, studentID, id int) error {
	if _, err := svc.ownQuestion(ctx, studentID, id, ErrNotOwnerDelete); err != nil {
		return err
	}
	_, err := svc.repo.SetQuestionsDeleted(ctx, true, id)
	return errors.Wrap(err, "deleting question")
}

// ToggleLike likes the question, or unlikes it when the student already did.
func (svc *Service) ToggleLike(ctx context.Context, studentID, id int) (LikeResult, error) {
	if _, err := svc.repo.GetActiveQuestion(ctx, id); err != nil {
		return LikeResult{}, err
	}
	res, err := svc.repo.ToggleLike(ctx, id, studentID)
	return res, errors.Wrap(err, "toggling like")
}

// ListForDate lists a day's questions for the student `viewerID`; date defaults to today.
func (svc *Service) ListForDate(ctx context.Context, viewerID int, date string, sort Sort) (Listing, error) {
	today := svc.clock.Today()
	if date == "" {
		date = today
	}
	views, err := svc.repo.QueryViews(ctx, viewerID, date, sort)
	if err != nil {
		return Listing{}, errors.Wrap(err, "querying questions")
	}
	for i := range views {
		views[i].Author = fmt.Sprintf("%d-%d %s", views[i].Grade, views[i].ClassNum, views[i].Name)
		views[i].IsMine = views[i].StudentID == viewerID
	}
	if views == nil {
		views = []View{}
	}

	posted, err := svc.repo.HasQuestionOn(ctx, viewerID, today)
	if err != nil {
		return Listing{}, errors.Wrap(err, "checking today's question")
	}
	return Listing{
		Questions:          views,
		AlreadyPostedToday: posted,
		Date:               date,
		TotalCount:         len(views),
	}, nil
}

// Dates lists the most recent days that have questions.
func (svc *Service) Dates(ctx context.Context) ([]DateCount, error) {
	dates, err := svc.repo.QueryDateCounts(ctx, DateListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "querying dates")
	}
	if dates == nil {
		dates = []DateCount{}
	}
	return dates, nil
}

// AdminListForDate lists a day's questions, soft-deleted ones flagged.
func (svc *Service) AdminListForDate(ctx context.Context, date string) (AdminListing, error) {
	if date == "" {
		date = svc.clock.Today()
	}
	views, err := svc.repo.QueryAdminViews(ctx, date)
	if err != nil {
		return AdminListing{}, errors.Wrap(err, "querying questions")
	}
	for i := range views {
		views[i].setAuthor()
	}
	if views == nil {
		views = []AdminView{}
	}
	return AdminListing{Questions: views, Date: date}, nil
}

// SetDeleted soft deletes or restores questions by id, whoever wrote them.
func (svc *Service) SetDeleted(ctx context.Context, deleted bool, ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	n, err := svc.repo.SetQuestionsDeleted(ctx, deleted, ids...)
	return n, errors.Wrap(err, "updating questions")
}
