// Package store provides the fuel store (depot site) master record.
package store

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
)

// Store is a depot site operating tanks, pumps and one STORE warehouse.
// Immutable value record; all mutation goes through the repository.
type Store struct {
	ID        id.ID     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address,omitempty"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks store invariants.
func (s *Store) Validate(ctx context.Context) error {
	if s.Code == "" {
		return apperror.NewValidation("store code is required").WithDetail("field", "code")
	}
	if s.Name == "" {
		return apperror.NewValidation("store name is required").WithDetail("field", "name")
	}
	return nil
}

// Repository defines persistence operations for stores.
type Repository interface {
	Create(ctx context.Context, s *Store) error
	GetByID(ctx context.Context, storeID id.ID) (*Store, error)
	GetByCode(ctx context.Context, code string) (*Store, error)
	List(ctx context.Context, activeOnly bool) ([]Store, error)
}
