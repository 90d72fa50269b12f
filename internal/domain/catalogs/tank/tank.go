// Package tank provides the storage tank master record. A tank belongs
// to a store, holds one product, and carries a baseline stock: the
// physically measured quantity at the moment the tank entered the
// system, before any ledger history exists.
package tank

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Tank is a fuel storage tank.
type Tank struct {
	ID        id.ID          `db:"id" json:"id"`
	StoreID   id.ID          `db:"store_id" json:"storeId"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	TankCode  string         `db:"tank_code" json:"tankCode"`
	Name      string         `db:"name" json:"name"`
	Capacity  types.Quantity `db:"capacity" json:"capacity"`
	// CurrentStock is the baseline, not a running total. The true
	// current stock is baseline plus all qualifying ledger deltas.
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
	IsActive     bool           `db:"is_active" json:"isActive"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate checks tank invariants.
func (t *Tank) Validate(ctx context.Context) error {
	if id.IsNil(t.StoreID) {
		return apperror.NewValidation("tank requires a store").WithDetail("field", "storeId")
	}
	if id.IsNil(t.ProductID) {
		return apperror.NewValidation("tank requires a product").WithDetail("field", "productId")
	}
	if t.TankCode == "" {
		return apperror.NewValidation("tank code is required").WithDetail("field", "tankCode")
	}
	if t.Capacity.IsNegative() {
		return apperror.NewValidation("tank capacity cannot be negative").
			WithDetail("capacity", t.Capacity.String())
	}
	if t.CurrentStock.IsNegative() {
		return apperror.NewValidation("tank baseline stock cannot be negative").
			WithDetail("currentStock", t.CurrentStock.String())
	}
	return nil
}

// FillPercent reports how full the tank is for a given balance, as a
// percentage. Tanks with zero capacity report zero.
func (t *Tank) FillPercent(balance types.Quantity) types.Quantity {
	if t.Capacity.IsZero() {
		return types.ZeroQuantity()
	}
	return balance.Div(t.Capacity).Mul(types.NewQuantity(100)).Round(2)
}

// Repository defines persistence operations for tanks.
type Repository interface {
	Create(ctx context.Context, t *Tank) error
	GetByID(ctx context.Context, tankID id.ID) (*Tank, error)
	ListByStore(ctx context.Context, storeID id.ID, activeOnly bool) ([]Tank, error)
	List(ctx context.Context, activeOnly bool) ([]Tank, error)
	// UpdateBaseline replaces the baseline stock, used by the
	// initial-stock workflow when a tank is re-gauged.
	UpdateBaseline(ctx context.Context, tankID id.ID, baseline types.Quantity) error
	// SumBaselines totals the baselines of a store's tanks holding the
	// given product.
	SumBaselines(ctx context.Context, storeID, productID id.ID) (types.Quantity, error)
}
