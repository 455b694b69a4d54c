package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

// Repositories bundles every repository over the same connection.
type Repositories struct {
	Students  *studentRepository
	Questions *questionRepository
	Admins    *adminRepository
	Settings  *settingRepository
	Stats     *statsRepository
	Reports   *reportRepository
	Hall      *hallRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Students:  NewStudentRepository(db),
		Questions: NewQuestionRepository(db),
		Admins:    NewAdminRepository(db),
		Settings:  NewSettingRepository(db),
		Stats:     NewStatsRepository(db),
		Reports:   NewReportRepository(db),
		Hall:      NewHallRepository(db),
	}
}

// trapNoRows swaps sql.ErrNoRows for the domain's not found error.
func trapNoRows(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

// runInTx runs fn in a transaction, committed only when fn succeeds.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// boolInt stores booleans the way the is_deleted column expects them.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting affected rows")
	}
	return int(n), nil
}

// insertReturningID runs an INSERT ... RETURNING id statement.
func insertReturningID(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int, error) {
	var id int
	if err := exec.GetContext(ctx, &id, exec.Rebind(query+" RETURNING id"), args...); err != nil {
		return 0, err
	}
	return id, nil
}
