package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/dailyq/dailyq/core/settings"
)

type settingRepository struct {
	db *sqlx.DB
}

var _ settings.Repository = (*settingRepository)(nil) // interface compliance check

func NewSettingRepository(db *sqlx.DB) *settingRepository {
	return &settingRepository{db: db}
}

func (repo settingRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var val sql.NullString
	q := repo.db.Rebind("SELECT value FROM settings WHERE key = ?")
	if err := repo.db.GetContext(ctx, &val, q, key); err != nil {
		return "", trapNoRows(err, settings.ErrNotFound)
	}
	return val.String, nil
}

func (repo settingRepository) SetSetting(ctx context.Context, key, value string) error {
	q := repo.db.Rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	_, err := repo.db.ExecContext(ctx, q, key, value)
	return err
}
