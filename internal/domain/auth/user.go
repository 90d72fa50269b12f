package auth

import (
	"context"
	"net/mail"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
)

// Role names understood by the HTTP layer.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User is an operator account. Only the id matters to the core; it is
// recorded as createdBy on closings and documents.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Roles        []string  `db:"roles" json:"roles"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks user invariants.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("invalid email format").WithDetail("email", u.Email)
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password hash is required")
	}
	return nil
}

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int64, error)
}
