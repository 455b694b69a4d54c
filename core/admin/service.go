package admin

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/dailyq/dailyq/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("admin not found")
	ErrMissingCredentials = core.Invalid("please enter your username and password")
	ErrBadCredentials     = core.NewAuthError("incorrect username or password")
)

type (
	Repository interface {
		GetAdminByUsername(ctx context.Context, username string) (Admin, error)
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		UpdateAdminPassword(ctx context.Context, id int, hash string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Authenticate checks an admin's credentials; legacy SHA-256 hashes are upgraded on success.
func (svc *Service) Authenticate(ctx context.Context, username, password string) (Admin, error) {
	username = core.CleanString(username)
	if username == "" || password == "" {
		return Admin{}, ErrMissingCredentials
	}

	adm, err := svc.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Admin{}, ErrBadCredentials
		}
		return Admin{}, errors.Wrap(err, "finding admin")
	}
	ok, legacy := core.CheckSecret(adm.PasswordHash, password)
	if !ok {
		return Admin{}, ErrBadCredentials
	}
	if legacy {
		hash, err := core.HashSecret(password, 0)
		if err != nil {
			return Admin{}, err
		}
		if err = svc.repo.UpdateAdminPassword(ctx, adm.ID, hash); err != nil {
			return Admin{}, errors.Wrap(err, "upgrading admin password hash")
		}
		adm.PasswordHash = hash
	}
	return adm, nil
}

// EnsureDefault creates the default admin account on a fresh database.
func (svc *Service) EnsureDefault(ctx context.Context) (created bool, err error) {
	if _, err = svc.repo.GetAdminByUsername(ctx, DefaultUsername); err == nil {
		return false, nil
	} else if errors.Cause(err) != ErrNotFound {
		return false, errors.Wrap(err, "finding default admin")
	}

	hash, err := core.HashSecret(DefaultPassword, 0)
	if err != nil {
		return false, err
	}
	_, err = svc.repo.CreateAdmin(ctx, Admin{
		Username:     DefaultUsername,
		PasswordHash: hash,
		CreatedAt:    core.NowFunc().UTC(),
	})
	if err != nil {
		return false, errors.Wrap(err, "creating default admin")
	}
	return true, nil
}

// CreateOrUpdate sets the password of `np.Username`, creating the account if needed.
func (svc *Service) CreateOrUpdate(ctx context.Context, np NewPassword) (Admin, error) {
	np.Username = core.CleanString(np.Username)
	if err := svc.validate.Struct(np); err != nil {
		return Admin{}, err
	}
	hash, err := core.HashSecret(np.Password, 0)
	if err != nil {
		return Admin{}, err
	}

	adm, err := svc.repo.GetAdminByUsername(ctx, np.Username)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Admin{}, errors.Wrap(err, "finding admin")
		}
		adm, err = svc.repo.CreateAdmin(ctx, Admin{
			Username:     np.Username,
			PasswordHash: hash,
			CreatedAt:    core.NowFunc().UTC(),
		})
		return adm, errors.Wrap(err, "creating admin")
	}

	if err = svc.repo.UpdateAdminPassword(ctx, adm.ID, hash); err != nil {
		return Admin{}, errors.Wrap(err, "updating admin password")
	}
	adm.PasswordHash = hash
	return adm, nil
}

// ResetPassword changes the password of an existing admin.
func (svc *Service) ResetPassword(ctx context.Context, np NewPassword) (Admin, error) {
	np.Username = core.CleanString(np.Username)
	if err := svc.validate.Struct(np); err != nil {
		return Admin{}, err
	}
	adm, err := svc.repo.GetAdminByUsername(ctx, np.Username)
	if err != nil {
		return Admin{}, err
	}
	hash, err := core.HashSecret(np.Password, 0)
	if err != nil {
		return Admin{}, err
	}
	if err = svc.repo.UpdateAdminPassword(ctx, adm.ID, hash); err != nil {
		return Admin{}, errors.Wrap(err, "updating admin password")
	}
	adm.PasswordHash = hash
	return adm, nil
}
