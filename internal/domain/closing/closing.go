// Package closing implements period closing: freezing per-tank
// balances for an accounting period into immutable snapshots, chained
// so that each period opens with the previous period's closing balance.
package closing

import (
	"context"
	"time"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
)

// Day truncates a timestamp to its civil date in UTC. Period bounds and
// effective dates are civil dates; all comparisons go through Day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Snapshot is one tank's frozen balance for a closed period. Snapshots
// are never updated; a wrong closing is deleted (latest period only)
// and re-executed.
type Snapshot struct {
	ID              id.ID            `db:"id" json:"id"`
	StoreID         id.ID            `db:"store_id" json:"storeId"`
	TankID          id.ID            `db:"tank_id" json:"tankId"`
	PeriodFrom      time.Time        `db:"period_from" json:"periodFrom"`
	PeriodTo        time.Time        `db:"period_to" json:"periodTo"`
	ClosingDate     time.Time        `db:"closing_date" json:"closingDate"`
	OpeningBalance  types.Quantity   `db:"opening_balance" json:"openingBalance"`
	ImportQuantity  types.Quantity   `db:"import_quantity" json:"importQuantity"`
	ExportQuantity  types.Quantity   `db:"export_quantity" json:"exportQuantity"`
	LossRate        types.Rate       `db:"loss_rate" json:"lossRate"`
	LossAmount      types.Quantity   `db:"loss_amount" json:"lossAmount"`
	ClosingBalance  types.Quantity   `db:"closing_balance" json:"closingBalance"`
	LossConfigID    *id.ID           `db:"loss_config_id" json:"lossConfigId,omitempty"`
	ProductCategory product.Category `db:"product_category" json:"productCategory"`
	Notes           string           `db:"notes" json:"notes,omitempty"`
	CreatedBy       *id.ID           `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
}

// Period is one distinct closed period of a store.
type Period struct {
	PeriodFrom  time.Time `db:"period_from" json:"periodFrom"`
	PeriodTo    time.Time `db:"period_to" json:"periodTo"`
	ClosingDate time.Time `db:"closing_date" json:"closingDate"`
}

// Repository defines persistence operations for closing snapshots.
type Repository interface {
	// CreateBatch writes all snapshots of one closing run.
	CreateBatch(ctx context.Context, snapshots []*Snapshot) error
	// FindLatestBefore returns the snapshot with the greatest
	// period-to strictly before the given day for a tank. Not-found
	// error when the tank has never been closed before that day.
	FindLatestBefore(ctx context.Context, tankID id.ID, day time.Time) (*Snapshot, error)
	// ExistsForPeriod reports whether the store already closed this
	// exact period.
	ExistsForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (bool, error)
	// ListByStore returns snapshots of a store ordered by period then
	// tank id, optionally clipped to periods intersecting
	// [fromDate, toDate].
	ListByStore(ctx context.Context, storeID id.ID, fromDate, toDate *time.Time) ([]Snapshot, error)
	// ListPeriods returns the distinct closed periods of a store,
	// newest first.
	ListPeriods(ctx context.Context, storeID id.ID) ([]Period, error)
	// MaxPeriodTo returns the latest closed period end of a store, or
	// nil when the store has never closed.
	MaxPeriodTo(ctx context.Context, storeID id.ID) (*time.Time, error)
	// DeleteForPeriod removes every snapshot of one store period.
	DeleteForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (int64, error)
}
