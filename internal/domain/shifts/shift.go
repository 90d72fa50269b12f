// Package shifts provides the sales shift record and the opening-stock
// backfiller. A shift snapshots its per-product opening stock as a
// JSON document; the chain invariant is that each shift opens with the
// previous shift's closing stock.
package shifts

import (
	"context"
	"time"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// Status tracks the shift lifecycle.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// OpeningStockItem is one product's opening stock at shift start.
type OpeningStockItem struct {
	ProductID    id.ID          `json:"productId"`
	ProductCode  string         `json:"productCode"`
	ProductName  string         `json:"productName"`
	OpeningStock types.Quantity `json:"openingStock"`
}

// Shift is one sales shift of a store. OpeningStock is stored as a
// JSONB column and may be empty for legacy rows until backfilled.
type Shift struct {
	ID           id.ID              `db:"id" json:"id"`
	StoreID      id.ID              `db:"store_id" json:"storeId"`
	ShiftNo      int                `db:"shift_no" json:"shiftNo"`
	ShiftDate    time.Time          `db:"shift_date" json:"shiftDate"`
	Status       Status             `db:"status" json:"status"`
	OpeningStock []OpeningStockItem `db:"opening_stock_json" json:"openingStock,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`
}

// Repository defines persistence operations for shifts.
type Repository interface {
	GetByID(ctx context.Context, shiftID id.ID) (*Shift, error)
	ListByStore(ctx context.Context, storeID id.ID) ([]Shift, error)
	// ListOrdered returns every shift ordered by store, date and
	// shift number, the order the backfiller walks the chain in.
	ListOrdered(ctx context.Context) ([]Shift, error)
	// UpdateOpeningStock replaces a shift's opening-stock document.
	UpdateOpeningStock(ctx context.Context, shiftID id.ID, items []OpeningStockItem) error
	// MarkClosed sets the shift status to CLOSED.
	MarkClosed(ctx context.Context, shiftID id.ID) error
}
