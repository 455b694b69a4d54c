package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core/admin"
)

type adminRepository struct {
	db *sqlx.DB
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB) *adminRepository {
	return &adminRepository{db: db}
}

func (repo adminRepository) GetAdminByUsername(ctx context.Context, username string) (admin.Admin, error) {
	var adm admin.Admin
	q := repo.db.Rebind("SELECT id, username, password_hash, created_at FROM admins WHERE username = ?")
	if err := repo.db.GetContext(ctx, &adm, q, username); err != nil {
		return admin.Admin{}, trapNoRows(err, admin.ErrNotFound)
	}
	return adm, nil
}

func (repo adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	id, err := insertReturningID(ctx, repo.db,
		"INSERT INTO admins (username, password_hash, created_at) VALUES (?, ?, ?)",
		adm.Username, adm.PasswordHash, adm.CreatedAt.UTC(),
	)
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "inserting admin")
	}
	adm.ID = id
	return adm, nil
}

func (repo adminRepository) UpdateAdminPassword(ctx context.Context, id int, hash string) error {
	q := repo.db.Rebind("UPDATE admins SET password_hash = ? WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return err
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return admin.ErrNotFound
	}
	return nil
}
