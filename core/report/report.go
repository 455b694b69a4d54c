package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

// DefaultStart is the first day exported when no start is given.
const DefaultStart = "2020-01-01"

// bom makes spreadsheet software read the file as UTF-8.
const bom = "\uFEFF"

const timestampLayout = "2006-01-02 15:04:05"

var (
	ErrInvalidRange = core.Invalid("start must not be after end")

	questionHeader = []string{"ID", "Date", "Grade", "Class", "Number", "Name", "Question", "Likes", "Created At"}
	studentHeader  = []string{"Grade", "Class", "Number", "Name", "Questions", "Likes Received"}
)

type (
	QuestionRow struct {
		ID          int       `db:"id"`
		CreatedDate string    `db:"created_date"`
		CreatedAt   time.Time `db:"created_at"`
		Content     string    `db:"content"`
		Grade       int       `db:"grade"`
		ClassNum    int       `db:"class_num"`
		StudentNum  int       `db:"student_num"`
		Name        string    `db:"name"`
		LikeCount   int       `db:"like_count"`
	}

	StudentRow struct {
		Grade         int    `db:"grade"`
		ClassNum      int    `db:"class_num"`
		StudentNum    int    `db:"student_num"`
		Name          string `db:"name"`
		QuestionCount int    `db:"question_count"`
		LikesReceived int    `db:"likes_received"`
	}

	Repository interface {
		// QueryQuestionRows returns non-deleted questions in range, newest first.
		QueryQuestionRows(ctx context.Context, rng core.DateRange) ([]QuestionRow, error)
		// QueryStudentRows returns every student with their questions and likes in range.
		QueryStudentRows(ctx context.Context, rng core.DateRange) ([]StudentRow, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// Range fills in default bounds: DefaultStart and today.
func (svc *Service) Range(start, end string) (core.DateRange, error) {
	rng := core.DateRange{Start: core.CleanString(start), End: core.CleanString(end)}
	if rng.Start == "" {
		rng.Start = DefaultStart
	}
	if rng.End == "" {
		rng.End = svc.clock.Today()
	}
	s, ok := core.ParseDate(rng.Start)
	if !ok {
		return core.DateRange{}, core.NewValidationError(nil, core.FieldError{Field: "start", Error: "start must be a date formatted YYYY-MM-DD"})
	}
	e, ok := core.ParseDate(rng.End)
	if !ok {
		return core.DateRange{}, core.NewValidationError(nil, core.FieldError{Field: "end", Error: "end must be a date formatted YYYY-MM-DD"})
	}
	if s.After(e) {
		return core.DateRange{}, ErrInvalidRange
	}
	return rng, nil
}

func QuestionsFilename(rng core.DateRange) string {
	return fmt.Sprintf("questions_%s_%s.csv", rng.Start, rng.End)
}

func StudentsFilename(rng core.DateRange) string {
	return fmt.Sprintf("students_%s_%s.csv", rng.Start, rng.End)
}

// WriteQuestions writes the questions of `rng` as CSV to w.
func (svc *Service) WriteQuestions(ctx context.Context, w io.Writer, rng core.DateRange) error {
	rows, err := svc.repo.QueryQuestionRows(ctx, rng)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, questionHeader)
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.ID),
			r.CreatedDate,
			strconv.Itoa(r.Grade),
			strconv.Itoa(r.ClassNum),
			strconv.Itoa(r.StudentNum),
			r.Name,
			r.Content,
			strconv.Itoa(r.LikeCount),
			r.CreatedAt.In(svc.clock.Location()).Format(timestampLayout),
		})
	}
	return writeCSV(w, records)
}

// WriteStudents writes per-student totals for `rng` as CSV to w.
func (svc *Service) WriteStudents(ctx context.Context, w io.Writer, rng core.DateRange) error {
	rows, err := svc.repo.QueryStudentRows(ctx, rng)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, studentHeader)
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Grade),
			strconv.Itoa(r.ClassNum),
			strconv.Itoa(r.StudentNum),
			r.Name,
			strconv.Itoa(r.QuestionCount),
			strconv.Itoa(r.LikesReceived),
		})
	}
	return writeCSV(w, records)
}

func writeCSV(w io.Writer, records [][]string) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return errors.Wrap(err, "writing BOM")
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return errors.Wrap(err, "writing CSV")
	}
	return nil
}
