package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
	"github.com/dailyq/dailyq/core/question"
)

var viewOrders = map[question.Sort]string{
	question.SortLatest: "q.created_at DESC, q.id DESC",
	question.SortLikes:  "like_count DESC, q.created_at DESC, q.id DESC",
}

type questionRepository struct {
	db *sqlx.DB
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *sqlx.DB) *questionRepository {
	return &questionRepository{db: db}
}

func (repo questionRepository) GetActiveQuestion(ctx context.Context, id int) (question.Question, error) {
	var q question.Question
	query := repo.db.Rebind(`
		SELECT id, student_id, content, created_date, created_at, is_deleted
		FROM questions WHERE id = ? AND is_deleted = 0`)
	if err := repo.db.GetContext(ctx, &q, query, id); err != nil {
		return question.Question{}, trapNoRows(err, question.ErrNotFound)
	}
	return q, nil
}

func hasQuestionOn(ctx context.Context, exec core.DBExecutor, studentID int, date string) (bool, error) {
	var n int
	query := exec.Rebind("SELECT COUNT(*) FROM questions WHERE student_id = ? AND created_date = ? AND is_deleted = 0")
	if err := exec.GetContext(ctx, &n, query, studentID, date); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (repo questionRepository) HasQuestionOn(ctx context.Context, studentID int, date string) (bool, error) {
	return hasQuestionOn(ctx, repo.db, studentID, date)
}

func (repo questionRepository) CreateDailyQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	err := runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		posted, err := hasQuestionOn(ctx, tx, q.StudentID, q.CreatedDate)
		if err != nil {
			return errors.Wrap(err, "checking today's question")
		}
		if posted {
			return question.ErrAlreadyPosted
		}
		q.ID, err = insertReturningID(ctx, tx,
			"INSERT INTO questions (student_id, content, created_date, created_at, is_deleted) VALUES (?, ?, ?, ?, 0)",
			q.StudentID, q.Content, q.CreatedDate, q.CreatedAt.UTC(),
		)
		return errors.Wrap(err, "inserting question")
	})
	if err != nil {
		return question.Question{}, err
	}
	return q, nil
}

func (repo questionRepository) UpdateQuestionContent(ctx context.Context, id int, content string) error {
	query := repo.db.Rebind("UPDATE questions SET content = ? WHERE id = ?")
	_, err := repo.db.ExecContext(ctx, query, content, id)
	return err
}

func (repo questionRepository) SetQuestionsDeleted(ctx context.Context, deleted bool, ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("UPDATE questions SET is_deleted = ? WHERE id IN (?)", boolInt(deleted), ids)
	if err != nil {
		return 0, errors.Wrap(err, "expanding ids")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

func (repo questionRepository) ToggleLike(ctx context.Context, questionID, studentID int) (question.LikeResult, error) {
	var res question.LikeResult
	err := runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var n int
		query := tx.Rebind("SELECT COUNT(*) FROM likes WHERE question_id = ? AND student_id = ?")
		if err := tx.GetContext(ctx, &n, query, questionID, studentID); err != nil {
			return errors.Wrap(err, "finding like")
		}

		if n > 0 {
			query = tx.Rebind("DELETE FROM likes WHERE question_id = ? AND student_id = ?")
			if _, err := tx.ExecContext(ctx, query, questionID, studentID); err != nil {
				return errors.Wrap(err, "removing like")
			}
		} else {
			query = tx.Rebind("INSERT INTO likes (question_id, student_id, created_at) VALUES (?, ?, ?)")
			if _, err := tx.ExecContext(ctx, query, questionID, studentID, core.NowFunc().UTC()); err != nil {
				return errors.Wrap(err, "adding like")
			}
			res.Liked = true
		}

		query = tx.Rebind("SELECT COUNT(*) FROM likes WHERE question_id = ?")
		return errors.Wrap(tx.GetContext(ctx, &res.LikeCount, query, questionID), "counting likes")
	})
	if err != nil {
		return question.LikeResult{}, err
	}
	return res, nil
}

func (repo questionRepository) QueryViews(ctx context.Context, viewerID int, date string, sort question.Sort) ([]question.View, error) {
	order, ok := viewOrders[sort]
	if !ok {
		order = viewOrders[question.SortLatest]
	}
	query := repo.db.Rebind(fmt.Sprintf(`
		SELECT q.id, q.student_id, q.content, q.created_at, q.created_date,
			s.grade, s.class_num, s.student_num, s.name,
			COUNT(DISTINCT l.id) AS like_count,
			MAX(CASE WHEN l.student_id = ? THEN 1 ELSE 0 END) AS liked_by_me
		FROM questions q
		JOIN students s ON q.student_id = s.id
		LEFT JOIN likes l ON q.id = l.question_id
		WHERE q.created_date = ? AND q.is_deleted = 0
		GROUP BY q.id, q.student_id, q.content, q.created_at, q.created_date,
			s.id, s.grade, s.class_num, s.student_num, s.name
		ORDER BY %s`, order))

	var views []question.View
	if err := repo.db.SelectContext(ctx, &views, query, viewerID, date); err != nil {
		return nil, err
	}
	return views, nil
}

func (repo questionRepository) QueryAdminViews(ctx context.Context, date string) ([]question.AdminView, error) {
	query := repo.db.Rebind(`
		SELECT q.id, q.content, q.created_at, q.is_deleted,
			s.grade, s.class_num, s.student_num, s.name,
			COUNT(DISTINCT l.id) AS like_count
		FROM questions q
		JOIN students s ON q.student_id = s.id
		LEFT JOIN likes l ON q.id = l.question_id
		WHERE q.created_date = ?
		GROUP BY q.id, q.content, q.created_at, q.is_deleted,
			s.id, s.grade, s.class_num, s.student_num, s.name
		ORDER BY q.created_at DESC, q.id DESC`)

	var views []question.AdminView
	if err := repo.db.SelectContext(ctx, &views, query, date); err != nil {
		return nil, err
	}
	return views, nil
}

func queryDateCounts(ctx context.Context, exec core.DBExecutor, limit int) ([]question.DateCount, error) {
	query := exec.Rebind(`
		SELECT created_date, COUNT(*) AS question_count
		FROM questions WHERE is_deleted = 0
		GROUP BY created_date
		ORDER BY created_date DESC
		LIMIT ?`)

	var dates []question.DateCount
	if err := exec.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, err
	}
	return dates, nil
}

func (repo questionRepository) QueryDateCounts(ctx context.Context, limit int) ([]question.DateCount, error) {
	return queryDateCounts(ctx, repo.db, limit)
}
