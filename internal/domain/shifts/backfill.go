package shifts

import (
	"context"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/domain/ledger"
	"fueldepot/pkg/logger"
)

// BackfillStats summarizes one backfill run.
type BackfillStats struct {
	ShiftsTotal   int `json:"shiftsTotal"`
	ShiftsUpdated int `json:"shiftsUpdated"`
	ShiftsSkipped int `json:"shiftsSkipped"`
}

// Backfiller reconstructs the opening-stock documents of historical
// shifts. It walks every shift in chain order and derives each opening
// from the previous shift of the same store: previous opening plus the
// fuel that shift imported minus what it exported. The first shift of
// a store seeds from the tank baselines.
type Backfiller struct {
	shifts     Repository
	warehouses warehouse.Repository
	products   product.Repository
	tanks      tank.Repository
	entries    ledger.Repository
}

// NewBackfiller constructs a backfiller.
func NewBackfiller(
	shifts Repository,
	warehouses warehouse.Repository,
	products product.Repository,
	tanks tank.Repository,
	entries ledger.Repository,
) *Backfiller {
	return &Backfiller{
		shifts:     shifts,
		warehouses: warehouses,
		products:   products,
		tanks:      tanks,
		entries:    entries,
	}
}

// Run backfills all shifts. Stores without a warehouse are logged and
// skipped; their shifts stay untouched. The computed openings are kept
// in memory so each shift reads its predecessor's result without
// re-reading the database.
func (b *Backfiller) Run(ctx context.Context) (BackfillStats, error) {
	allShifts, err := b.shifts.ListOrdered(ctx)
	if err != nil {
		return BackfillStats{}, err
	}
	allProducts, err := b.products.List(ctx, false)
	if err != nil {
		return BackfillStats{}, err
	}
	logger.Info(ctx, "backfill started", "shifts", len(allShifts), "products", len(allProducts))

	stats := BackfillStats{ShiftsTotal: len(allShifts)}
	computed := make(map[id.ID][]OpeningStockItem, len(allShifts))
	prevByStore := make(map[id.ID]*Shift)
	warehouseByStore := make(map[id.ID]*warehouse.Warehouse)

	for i := range allShifts {
		shift := &allShifts[i]

		wh, ok := warehouseByStore[shift.StoreID]
		if !ok {
			wh, err = b.warehouses.GetStoreWarehouse(ctx, shift.StoreID)
			if err != nil {
				if apperror.IsNotFound(err) {
					logger.Warn(ctx, "store has no warehouse, skipping shift",
						"store_id", shift.StoreID, "shift_id", shift.ID)
					stats.ShiftsSkipped++
					continue
				}
				return stats, err
			}
			warehouseByStore[shift.StoreID] = wh
		}

		prevShift := prevByStore[shift.StoreID]
		firstOfStore := prevShift == nil

		items := make([]OpeningStockItem, 0, len(allProducts))
		for _, prod := range allProducts {
			var opening types.Quantity
			if prevShift != nil {
				opening = openingFromItems(computed[prevShift.ID], prod.ID)
				sums, err := b.entries.SumForShift(ctx, wh.ID, prod.ID, prevShift.ID)
				if err != nil {
					return stats, err
				}
				opening = opening.Add(sums.In).Sub(sums.Out)
			} else {
				opening, err = b.tanks.SumBaselines(ctx, shift.StoreID, prod.ID)
				if err != nil {
					return stats, err
				}
			}
			// Zero lines are noise except on the seeding shift, where
			// an explicit zero distinguishes "empty" from "unknown".
			if !opening.IsZero() || firstOfStore {
				items = append(items, OpeningStockItem{
					ProductID:    prod.ID,
					ProductCode:  prod.Code,
					ProductName:  prod.Name,
					OpeningStock: opening,
				})
			}
		}

		prevByStore[shift.StoreID] = shift
		computed[shift.ID] = items
		if len(items) == 0 {
			continue
		}
		if err := b.shifts.UpdateOpeningStock(ctx, shift.ID, items); err != nil {
			return stats, err
		}
		stats.ShiftsUpdated++
		logger.Debug(ctx, "shift backfilled",
			"shift_id", shift.ID, "shift_no", shift.ShiftNo,
			"shift_date", shift.ShiftDate.Format("2006-01-02"), "products", len(items))
	}

	logger.Info(ctx, "backfill finished",
		"updated", stats.ShiftsUpdated, "skipped", stats.ShiftsSkipped)
	return stats, nil
}

func openingFromItems(items []OpeningStockItem, productID id.ID) types.Quantity {
	for _, it := range items {
		if it.ProductID == productID {
			return it.OpeningStock
		}
	}
	return types.ZeroQuantity()
}
