package shifts

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
	"fueldepot/pkg/logger"
)

// Closer closes a shift. The raw per-transaction ledger entries booked
// against the shift are folded into per-tank, per-product summary
// entries and stamped superseded, so every balance keeps its total
// while the live row count stays bounded.
type Closer struct {
	shifts    Repository
	entries   ledger.Repository
	txManager tx.Manager
}

// NewCloser constructs a shift closer.
func NewCloser(shifts Repository, entries ledger.Repository, txManager tx.Manager) *Closer {
	return &Closer{
		shifts:    shifts,
		entries:   entries,
		txManager: txManager,
	}
}

type summaryKey struct {
	warehouseID id.ID
	productID   id.ID
	tankID      id.ID
}

// Close folds the shift's raw entries into summaries, supersedes the
// raw rows and marks the shift CLOSED, all in one transaction.
func (c *Closer) Close(ctx context.Context, shiftID id.ID) (*Shift, error) {
	sh, err := c.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.Status == StatusClosed {
		return nil, apperror.NewConflict("shift is already closed").
			WithDetail("shiftId", shiftID.String())
	}

	raw, err := c.entries.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	summaries, rawIDs := c.summarize(ctx, sh, raw)

	err = c.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if len(summaries) > 0 {
			if err := c.entries.CreateBatch(txCtx, summaries); err != nil {
				return err
			}
		}
		if len(rawIDs) > 0 {
			if err := c.entries.MarkSuperseded(txCtx, rawIDs, shiftID); err != nil {
				return err
			}
		}
		return c.shifts.MarkClosed(txCtx, shiftID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shift closed",
		"shift_id", shiftID,
		"raw_entries", len(rawIDs),
		"summaries", len(summaries))
	sh.Status = StatusClosed
	return sh, nil
}

// summarize aggregates the raw entries by warehouse, product and tank.
// Each group yields at most one inbound and one outbound summary, so
// the gross import and export totals of every period query survive the
// fold unchanged.
func (c *Closer) summarize(ctx context.Context, sh *Shift, raw []ledger.Entry) ([]*ledger.Entry, []id.ID) {
	var createdBy *id.ID
	if uid := appctx.GetUserID(ctx); uid != "" {
		if parsed, err := id.Parse(uid); err == nil {
			createdBy = &parsed
		}
	}

	totals := make(map[summaryKey]*ledger.Sums)
	var order []summaryKey
	rawIDs := make([]id.ID, 0, len(raw))
	for i := range raw {
		e := &raw[i]
		key := summaryKey{warehouseID: e.WarehouseID, productID: e.ProductID, tankID: id.Nil()}
		if e.TankID != nil {
			key.tankID = *e.TankID
		}
		sums, ok := totals[key]
		if !ok {
			sums = &ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}
			totals[key] = sums
			order = append(order, key)
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
		rawIDs = append(rawIDs, e.ID)
	}

	now := time.Now().UTC()
	var summaries []*ledger.Entry
	for _, key := range order {
		sums := totals[key]
		var tankID *id.ID
		if !id.IsNil(key.tankID) {
			tid := key.tankID
			tankID = &tid
		}
		shiftRef := sh.ID
		if sums.In.IsPositive() {
			summaries = append(summaries, &ledger.Entry{
				ID:          id.New(),
				WarehouseID: key.warehouseID,
				ProductID:   key.productID,
				TankID:      tankID,
				ShiftID:     &shiftRef,
				RefType:     ledger.RefShiftSale,
				RefID:       sh.ID,
				QuantityIn:  sums.In,
				QuantityOut: types.ZeroQuantity(),
				CreatedAt:   now,
				CreatedBy:   createdBy,
			})
		}
		if sums.Out.IsPositive() {
			summaries = append(summaries, &ledger.Entry{
				ID:          id.New(),
				WarehouseID: key.warehouseID,
				ProductID:   key.productID,
				TankID:      tankID,
				ShiftID:     &shiftRef,
				RefType:     ledger.RefShiftSale,
				RefID:       sh.ID,
				QuantityIn:  types.ZeroQuantity(),
				QuantityOut: sums.Out,
				CreatedAt:   now,
				CreatedBy:   createdBy,
			})
		}
	}
	return summaries, rawIDs
}
