// Package ledger implements the append-only inventory ledger. Every
// fuel movement is recorded as an immutable entry; balances are always
// derived by summation, never stored. Corrections append compensating
// entries or supersede raw entries with a shift summary.
package ledger

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
)

// RefType identifies the business event behind a ledger entry.
type RefType string

const (
	RefImport       RefType = "IMPORT"
	RefExport       RefType = "EXPORT"
	RefTransferIn   RefType = "TRANSFER_IN"
	RefTransferOut  RefType = "TRANSFER_OUT"
	RefAdjustment   RefType = "ADJUSTMENT"
	RefInitialStock RefType = "INITIAL_STOCK"
	RefShiftSale    RefType = "SHIFT_SALE"
)

// Inbound reports whether the reference type increases stock.
func (r RefType) Inbound() bool {
	return r == RefImport || r == RefTransferIn || r == RefInitialStock
}

// Valid reports whether the reference type is known.
func (r RefType) Valid() bool {
	switch r {
	case RefImport, RefExport, RefTransferIn, RefTransferOut,
		RefAdjustment, RefInitialStock, RefShiftSale:
		return true
	}
	return false
}

// Entry is one immutable ledger row. Exactly one of QuantityIn and
// QuantityOut is positive; the other is zero. SupersededByShiftID is
// set when a closed shift's summary replaces raw per-transaction
// entries; superseded entries are excluded from every balance.
type Entry struct {
	ID                  id.ID          `db:"id" json:"id"`
	WarehouseID         id.ID          `db:"warehouse_id" json:"warehouseId"`
	ProductID           id.ID          `db:"product_id" json:"productId"`
	TankID              *id.ID         `db:"tank_id" json:"tankId,omitempty"`
	ShiftID             *id.ID         `db:"shift_id" json:"shiftId,omitempty"`
	RefType             RefType        `db:"ref_type" json:"refType"`
	RefID               id.ID          `db:"ref_id" json:"refId"`
	QuantityIn          types.Quantity `db:"quantity_in" json:"quantityIn"`
	QuantityOut         types.Quantity `db:"quantity_out" json:"quantityOut"`
	Notes               string         `db:"notes" json:"notes,omitempty"`
	SupersededByShiftID *id.ID         `db:"superseded_by_shift_id" json:"supersededByShiftId,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	CreatedBy           *id.ID         `db:"created_by" json:"createdBy,omitempty"`
}

// Delta is the signed effect of the entry on stock.
func (e *Entry) Delta() types.Quantity {
	return e.QuantityIn.Sub(e.QuantityOut)
}

// Validate checks entry invariants.
func (e *Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.WarehouseID) {
		return apperror.NewValidation("ledger entry requires a warehouse").
			WithDetail("field", "warehouseId")
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewValidation("ledger entry requires a product").
			WithDetail("field", "productId")
	}
	if !e.RefType.Valid() {
		return apperror.NewValidation("unknown ledger reference type").
			WithDetail("refType", string(e.RefType))
	}
	if id.IsNil(e.RefID) {
		return apperror.NewValidation("ledger entry requires a reference").
			WithDetail("field", "refId")
	}
	if e.QuantityIn.IsNegative() || e.QuantityOut.IsNegative() {
		return apperror.NewValidation("ledger quantities cannot be negative").
			WithDetail("quantityIn", e.QuantityIn.String()).
			WithDetail("quantityOut", e.QuantityOut.String())
	}
	if e.QuantityIn.IsPositive() && e.QuantityOut.IsPositive() {
		return apperror.NewValidation("ledger entry cannot move both directions")
	}
	return nil
}

// Sums carries aggregated in/out quantities.
type Sums struct {
	In  types.Quantity
	Out types.Quantity
}

// Net is inbound minus outbound.
func (s Sums) Net() types.Quantity { return s.In.Sub(s.Out) }

// ProductSums is a per-product aggregation row.
type ProductSums struct {
	ProductID id.ID
	Sums
}

// TankSums is a per-tank aggregation row.
type TankSums struct {
	TankID id.ID
	Sums
}

// Repository defines persistence operations for the ledger. All sum
// queries exclude superseded entries.
type Repository interface {
	// CreateBatch appends entries. Entries are immutable once written.
	CreateBatch(ctx context.Context, entries []*Entry) error

	// SumForTank totals entries of a tank strictly before until.
	// A nil until means all history.
	SumForTank(ctx context.Context, tankID id.ID, until *time.Time) (Sums, error)
	// SumForTankInPeriod totals entries of a tank in [from, toExclusive).
	SumForTankInPeriod(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (Sums, error)
	// SumForTanks totals entries grouped by tank, strictly before until.
	SumForTanks(ctx context.Context, tankIDs []id.ID, until *time.Time) ([]TankSums, error)
	// SumForWarehouseProduct totals entries of a product in a warehouse.
	SumForWarehouseProduct(ctx context.Context, warehouseID, productID id.ID, until *time.Time) (Sums, error)
	// SumForShift totals a product's entries booked against one shift.
	SumForShift(ctx context.Context, warehouseID, productID, shiftID id.ID) (Sums, error)
	// SumByWarehouse totals entries of a warehouse grouped by product.
	SumByWarehouse(ctx context.Context, warehouseID id.ID, until *time.Time) ([]ProductSums, error)

	// ListByRef returns entries written for one business document.
	ListByRef(ctx context.Context, refType RefType, refID id.ID) ([]Entry, error)
	// ListByShift returns live entries booked against one shift,
	// the rows a shift close folds into its summary.
	ListByShift(ctx context.Context, shiftID id.ID) ([]Entry, error)
	// DeleteByRef removes entries of a reversed document. This is the
	// only deletion the ledger allows.
	DeleteByRef(ctx context.Context, refType RefType, refID id.ID) (int64, error)
	// MarkSuperseded stamps raw entries with the shift that replaced
	// them. Idempotent for already-stamped entries.
	MarkSuperseded(ctx context.Context, entryIDs []id.ID, shiftID id.ID) error
}
