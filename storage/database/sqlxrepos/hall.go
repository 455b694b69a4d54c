package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dailyq/dailyq/core/hall"
)

type hallRepository struct {
	db *sqlx.DB
}

var _ hall.Repository = (*hallRepository)(nil) // interface compliance check

func NewHallRepository(db *sqlx.DB) *hallRepository {
	return &hallRepository{db: db}
}

func (repo hallRepository) QueryQuestionCounts(ctx context.Context, since string) ([]hall.Entry, error) {
	q := repo.db.Rebind(`
		SELECT s.id, s.grade, s.class_num, s.student_num, s.name, COUNT(q.id) AS question_count
		FROM students s
		JOIN questions q ON s.id = q.student_id AND q.is_deleted = 0 AND q.created_date >= ?
		GROUP BY s.id, s.grade, s.class_num, s.student_num, s.name
		ORDER BY question_count DESC, s.grade ASC, s.class_num ASC, s.student_num ASC`)

	var entries []hall.Entry
	if err := repo.db.SelectContext(ctx, &entries, q, since); err != nil {
		return nil, err
	}
	return entries, nil
}
