// Package warehouse provides the warehouse master record. Every store
// owns exactly one warehouse of type STORE; the ledger books all fuel
// movement against warehouses, never against stores directly.
package warehouse

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
)

// Type discriminates warehouse kinds.
type Type string

const (
	// TypeStore is the per-store operational warehouse.
	TypeStore Type = "STORE"
	// TypeCentral is a central distribution warehouse.
	TypeCentral Type = "CENTRAL"
)

// Warehouse is a stock-keeping location.
type Warehouse struct {
	ID        id.ID     `db:"id" json:"id"`
	StoreID   *id.ID    `db:"store_id" json:"storeId,omitempty"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Type      Type      `db:"type" json:"type"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks warehouse invariants.
func (w *Warehouse) Validate(ctx context.Context) error {
	if w.Name == "" {
		return apperror.NewValidation("warehouse name is required").WithDetail("field", "name")
	}
	switch w.Type {
	case TypeStore:
		if w.StoreID == nil || id.IsNil(*w.StoreID) {
			return apperror.NewValidation("store warehouse requires a store").
				WithDetail("field", "storeId")
		}
	case TypeCentral:
	default:
		return apperror.NewValidation("unknown warehouse type").
			WithDetail("type", string(w.Type))
	}
	return nil
}

// Repository defines persistence operations for warehouses.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, warehouseID id.ID) (*Warehouse, error)
	// GetStoreWarehouse resolves the STORE-type warehouse of a store.
	// Returns a not-found error when the store has none.
	GetStoreWarehouse(ctx context.Context, storeID id.ID) (*Warehouse, error)
	List(ctx context.Context, activeOnly bool) ([]Warehouse, error)
}
