package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) QueryQuestionRows(ctx context.Context, rng core.DateRange) ([]report.QuestionRow, error) {
	q := repo.db.Rebind(`
		SELECT q.id, q.content, q.created_date, q.created_at,
			s.grade, s.class_num, s.student_num, s.name,
			COUNT(DISTINCT l.id) AS like_count
		FROM questions q
		JOIN students s ON q.student_id = s.id
		LEFT JOIN likes l ON q.id = l.question_id
		WHERE q.created_date >= ? AND q.created_date <= ? AND q.is_deleted = 0
		GROUP BY q.id, q.content, q.created_date, q.created_at,
			s.id, s.grade, s.class_num, s.student_num, s.name
		ORDER BY q.created_date DESC, q.created_at DESC, q.id DESC`)

	var rows []report.QuestionRow
	if err := repo.db.SelectContext(ctx, &rows, q, rng.Start, rng.End); err != nil {
		return nil, err
	}
	return rows, nil
}

func (repo reportRepository) QueryStudentRows(ctx context.Context, rng core.DateRange) ([]report.StudentRow, error) {
	q := repo.db.Rebind(`
		SELECT s.grade, s.class_num, s.student_num, s.name,
			COUNT(DISTINCT q.id) AS question_count,
			COUNT(DISTINCT l.id) AS likes_received
		FROM students s
		LEFT JOIN questions q ON s.id = q.student_id AND q.is_deleted = 0
			AND q.created_date >= ? AND q.created_date <= ?
		LEFT JOIN likes l ON q.id = l.question_id
		GROUP BY s.id, s.grade, s.class_num, s.student_num, s.name
		ORDER BY s.grade, s.class_num, s.student_num`)

	var rows []report.StudentRow
	if err := repo.db.SelectContext(ctx, &rows, q, rng.Start, rng.End); err != nil {
		return nil, err
	}
	return rows, nil
}
