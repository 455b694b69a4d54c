package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core/student"
)

const studentColumns = "id, grade, class_num, student_num, name, pin, pin_hash, created_at"

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var stu student.Student
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")
	if err := repo.db.GetContext(ctx, &stu, q, id); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound)
	}
	return stu, nil
}

func (repo studentRepository) GetStudentByKey(ctx context.Context, key student.Key) (student.Student, error) {
	var stu student.Student
	q := repo.db.Rebind("SELECT " + studentColumns + " FROM students" +
		" WHERE grade = ? AND class_num = ? AND student_num = ? AND name = ?")
	if err := repo.db.GetContext(ctx, &stu, q, key.Grade, key.ClassNum, key.StudentNum, key.Name); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound)
	}
	return stu, nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	id, err := insertReturningID(ctx, repo.db,
		"INSERT INTO students (grade, class_num, student_num, name, pin, pin_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		stu.Grade, stu.ClassNum, stu.StudentNum, stu.Name, stu.PIN, stu.PINHash, stu.CreatedAt.UTC(),
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	stu.ID = id
	return stu, nil
}

func (repo studentRepository) UpdateStudentPINs(ctx context.Context, updates ...student.PINUpdate) (int, error) {
	var total int
	err := runInTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := tx.Rebind("UPDATE students SET pin = ?, pin_hash = ? WHERE id = ?")
		for _, upd := range updates {
			res, err := tx.ExecContext(ctx, q, upd.PIN, upd.PINHash, upd.ID)
			if err != nil {
				return errors.Wrapf(err, "updating PIN of student %d", upd.ID)
			}
			n, err := rowsAffected(res)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, withoutPINOnly bool) ([]student.Student, error) {
	q := "SELECT " + studentColumns + " FROM students"
	if withoutPINOnly {
		q += " WHERE pin IS NULL AND pin_hash IS NULL"
	}
	q += " ORDER BY grade, class_num, student_num, id"

	var students []student.Student
	if err := repo.db.SelectContext(ctx, &students, q); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo studentRepository) QueryCountedStudents(ctx context.Context) ([]student.CountedStudent, error) {
	q := `
		SELECT s.id, s.grade, s.class_num, s.student_num, s.name, s.pin, s.pin_hash, s.created_at,
			(SELECT COUNT(*) FROM questions q WHERE q.student_id = s.id AND q.is_deleted = 0) AS question_count
		FROM students s
		ORDER BY s.grade, s.class_num, s.student_num, s.id`

	var students []student.CountedStudent
	if err := repo.db.SelectContext(ctx, &students, q); err != nil {
		return nil, err
	}
	return students, nil
}
