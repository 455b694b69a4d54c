package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dailyq/dailyq/core/question"
	"github.com/dailyq/dailyq/core/stats"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo statsRepository) QueryTotals(ctx context.Context, today string) (stats.Totals, error) {
	var totals stats.Totals
	q := repo.db.Rebind(`
		SELECT
			(SELECT COUNT(*) FROM students) AS total_students,
			(SELECT COUNT(*) FROM questions WHERE is_deleted = 0) AS total_questions,
			(SELECT COUNT(*) FROM likes) AS total_likes,
			(SELECT COUNT(*) FROM questions WHERE created_date = ? AND is_deleted = 0) AS today_questions`)
	if err := repo.db.GetContext(ctx, &totals, q, today); err != nil {
		return stats.Totals{}, err
	}
	return totals, nil
}

func (repo statsRepository) QueryDateCounts(ctx context.Context, limit int) ([]question.DateCount, error) {
	return queryDateCounts(ctx, repo.db, limit)
}

func (repo statsRepository) QueryGradeStats(ctx context.Context) ([]stats.GradeStat, error) {
	q := `
		SELECT s.grade, COUNT(DISTINCT s.id) AS student_count, COUNT(DISTINCT q.id) AS question_count
		FROM students s
		LEFT JOIN questions q ON s.id = q.student_id AND q.is_deleted = 0
		GROUP BY s.grade
		ORDER BY s.grade`

	var grades []stats.GradeStat
	if err := repo.db.SelectContext(ctx, &grades, q); err != nil {
		return nil, err
	}
	return grades, nil
}

func (repo statsRepository) QueryTopQuestions(ctx context.Context, since string, limit int) ([]stats.TopQuestion, error) {
	q := repo.db.Rebind(`
		SELECT q.content, s.grade, s.class_num, s.name, COUNT(l.id) AS like_count
		FROM questions q
		JOIN students s ON q.student_id = s.id
		LEFT JOIN likes l ON q.id = l.question_id
		WHERE q.is_deleted = 0 AND q.created_date >= ?
		GROUP BY q.id, q.content, s.id, s.grade, s.class_num, s.name
		HAVING COUNT(l.id) > 0
		ORDER BY like_count DESC, q.id ASC
		LIMIT ?`)

	var top []stats.TopQuestion
	if err := repo.db.SelectContext(ctx, &top, q, since, limit); err != nil {
		return nil, err
	}
	return top, nil
}
