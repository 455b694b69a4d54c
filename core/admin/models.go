package admin

import "time"

const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

type Admin struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

// NewPassword is what the admin CLI collects to create or reset an account.
type NewPassword struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}
