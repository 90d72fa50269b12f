package closing

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	appctx "fueldepot/internal/core/context"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/tx"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/domain/ledger"
	"fueldepot/pkg/logger"
)

// PreviewItem is one tank's computed closing line.
type PreviewItem struct {
	TankID          id.ID            `json:"tankId"`
	TankCode        string           `json:"tankCode"`
	TankName        string           `json:"tankName"`
	ProductID       id.ID            `json:"productId"`
	ProductName     string           `json:"productName"`
	ProductCategory product.Category `json:"productCategory"`
	OpeningBalance  types.Quantity   `json:"openingBalance"`
	ImportQuantity  types.Quantity   `json:"importQuantity"`
	ExportQuantity  types.Quantity   `json:"exportQuantity"`
	LossRate        types.Rate       `json:"lossRate"`
	LossAmount      types.Quantity   `json:"lossAmount"`
	ClosingBalance  types.Quantity   `json:"closingBalance"`
	LossConfigID    *id.ID           `json:"lossConfigId,omitempty"`
}

// Preview is a full closing computation that has not been persisted.
type Preview struct {
	StoreID    id.ID         `json:"storeId"`
	StoreName  string        `json:"storeName"`
	PeriodFrom time.Time     `json:"periodFrom"`
	PeriodTo   time.Time     `json:"periodTo"`
	Items      []PreviewItem `json:"items"`
}

// Request names the store and period to close.
type Request struct {
	StoreID    id.ID     `json:"storeId"`
	PeriodFrom time.Time `json:"periodFrom"`
	PeriodTo   time.Time `json:"periodTo"`
	Notes      string    `json:"notes,omitempty"`
}

func (r *Request) validate() error {
	if id.IsNil(r.StoreID) {
		return apperror.NewValidation("closing requires a store").WithDetail("field", "storeId")
	}
	if r.PeriodFrom.IsZero() || r.PeriodTo.IsZero() {
		return apperror.NewValidation("closing requires a period")
	}
	if Day(r.PeriodTo).Before(Day(r.PeriodFrom)) {
		return apperror.NewValidation("period end cannot precede period start").
			WithDetail("periodFrom", Day(r.PeriodFrom).Format(time.DateOnly)).
			WithDetail("periodTo", Day(r.PeriodTo).Format(time.DateOnly))
	}
	return nil
}

// Engine computes and persists period closings. All snapshots of one
// run are written in a single transaction; per-store serialization
// keeps concurrent runs for the same store from interleaving.
type Engine struct {
	closings   Repository
	lossRates  *LossConfigService
	calculator *ledger.Calculator
	stores     store.Repository
	warehouses warehouse.Repository
	tanks      tank.Repository
	products   product.Repository
	txManager  tx.Manager
	locks      *storeLocks
}

// NewEngine constructs a closing engine.
func NewEngine(
	closings Repository,
	lossRates *LossConfigService,
	calculator *ledger.Calculator,
	stores store.Repository,
	warehouses warehouse.Repository,
	tanks tank.Repository,
	products product.Repository,
	txManager tx.Manager,
) *Engine {
	return &Engine{
		closings:   closings,
		lossRates:  lossRates,
		calculator: calculator,
		stores:     stores,
		warehouses: warehouses,
		tanks:      tanks,
		products:   products,
		txManager:  txManager,
		locks:      newStoreLocks(),
	}
}

// OpeningBalance resolves a tank's balance at the start of a period:
// the closing balance of the latest closed period ending before it, or
// the baseline plus ledger history before the period when the tank has
// never been closed.
func (e *Engine) OpeningBalance(ctx context.Context, tankID id.ID, periodFrom time.Time) (types.Quantity, error) {
	last, err := e.closings.FindLatestBefore(ctx, tankID, Day(periodFrom))
	if err == nil {
		return last.ClosingBalance, nil
	}
	if !apperror.IsNotFound(err) {
		return types.ZeroQuantity(), err
	}
	from := Day(periodFrom)
	return e.calculator.TankBalance(ctx, tankID, &from)
}

// PreviewClosing computes the closing lines for every active tank of
// the store without persisting anything. A period the store already
// closed is a conflict.
func (e *Engine) PreviewClosing(ctx context.Context, req Request) (*Preview, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	periodFrom := Day(req.PeriodFrom)
	periodTo := Day(req.PeriodTo)

	st, err := e.stores.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if _, err := e.warehouses.GetStoreWarehouse(ctx, req.StoreID); err != nil {
		return nil, err
	}

	exists, err := e.closings.ExistsForPeriod(ctx, req.StoreID, periodFrom, periodTo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("period is already closed for this store").
			WithDetail("storeId", req.StoreID.String()).
			WithDetail("periodFrom", periodFrom.Format(time.DateOnly)).
			WithDetail("periodTo", periodTo.Format(time.DateOnly))
	}

	tanks, err := e.tanks.ListByStore(ctx, req.StoreID, true)
	if err != nil {
		return nil, err
	}

	// The period covers whole days: entries in [periodFrom, periodTo+1d).
	windowEnd := periodTo.AddDate(0, 0, 1)

	items := make([]PreviewItem, 0, len(tanks))
	for _, t := range tanks {
		prod, err := e.products.GetByID(ctx, t.ProductID)
		if err != nil {
			return nil, err
		}

		opening, err := e.OpeningBalance(ctx, t.ID, periodFrom)
		if err != nil {
			return nil, err
		}

		sums, err := e.calculator.TankPeriodSums(ctx, t.ID, periodFrom, windowEnd)
		if err != nil {
			return nil, err
		}

		// The rate in force on the period's last day applies to the
		// whole period.
		rate, configID, err := e.lossRates.EffectiveRate(ctx, req.StoreID, prod.Category, periodTo)
		if err != nil {
			return nil, err
		}

		lossAmount := sums.Out.Mul(rate)
		closingBalance := opening.Add(sums.In).Sub(sums.Out).Sub(lossAmount)

		items = append(items, PreviewItem{
			TankID:          t.ID,
			TankCode:        t.TankCode,
			TankName:        t.Name,
			ProductID:       t.ProductID,
			ProductName:     prod.Name,
			ProductCategory: prod.Category,
			OpeningBalance:  opening,
			ImportQuantity:  sums.In,
			ExportQuantity:  sums.Out,
			LossRate:        rate,
			LossAmount:      lossAmount,
			ClosingBalance:  closingBalance,
			LossConfigID:    configID,
		})
	}

	return &Preview{
		StoreID:    req.StoreID,
		StoreName:  st.Name,
		PeriodFrom: periodFrom,
		PeriodTo:   periodTo,
		Items:      items,
	}, nil
}

// ExecuteClosing recomputes the preview and persists every snapshot of
// the run atomically. Either all tanks of the store close or none do.
func (e *Engine) ExecuteClosing(ctx context.Context, req Request) ([]Snapshot, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	unlock := e.locks.lock(req.StoreID.String())
	defer unlock()

	var saved []Snapshot
	err := e.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		preview, err := e.PreviewClosing(txCtx, req)
		if err != nil {
			return err
		}
		closingDate := time.Now().UTC()
		var createdBy *id.ID
		if uid := appctx.GetUserID(txCtx); uid != "" {
			if parsed, err := id.Parse(uid); err == nil {
				createdBy = &parsed
			}
		}

		snapshots := make([]*Snapshot, 0, len(preview.Items))
		for _, item := range preview.Items {
			snapshots = append(snapshots, &Snapshot{
				ID:              id.New(),
				StoreID:         req.StoreID,
				TankID:          item.TankID,
				PeriodFrom:      preview.PeriodFrom,
				PeriodTo:        preview.PeriodTo,
				ClosingDate:     closingDate,
				OpeningBalance:  item.OpeningBalance,
				ImportQuantity:  item.ImportQuantity,
				ExportQuantity:  item.ExportQuantity,
				LossRate:        item.LossRate,
				LossAmount:      item.LossAmount,
				ClosingBalance:  item.ClosingBalance,
				LossConfigID:    item.LossConfigID,
				ProductCategory: item.ProductCategory,
				Notes:           req.Notes,
				CreatedBy:       createdBy,
				CreatedAt:       closingDate,
			})
		}
		if err := e.closings.CreateBatch(txCtx, snapshots); err != nil {
			return err
		}
		saved = make([]Snapshot, len(snapshots))
		for i, s := range snapshots {
			saved[i] = *s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "period closed",
		"store_id", req.StoreID,
		"period_from", Day(req.PeriodFrom).Format(time.DateOnly),
		"period_to", Day(req.PeriodTo).Format(time.DateOnly),
		"tanks", len(saved))
	return saved, nil
}

// DeleteClosing removes every snapshot of one closed period. Only the
// store's latest period may be deleted, so the opening-balance chain
// never gets a hole.
func (e *Engine) DeleteClosing(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) error {
	if id.IsNil(storeID) {
		return apperror.NewValidation("store is required").WithDetail("field", "storeId")
	}
	unlock := e.locks.lock(storeID.String())
	defer unlock()

	periodFrom = Day(periodFrom)
	periodTo = Day(periodTo)

	return e.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		maxTo, err := e.closings.MaxPeriodTo(txCtx, storeID)
		if err != nil {
			return err
		}
		if maxTo != nil && maxTo.After(periodTo) {
			return apperror.NewNotLatestPeriod(storeID.String(), periodTo.Format(time.DateOnly))
		}
		deleted, err := e.closings.DeleteForPeriod(txCtx, storeID, periodFrom, periodTo)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return apperror.NewNotFound("closing period", periodFrom.Format(time.DateOnly)+".."+periodTo.Format(time.DateOnly)).
				WithDetail("storeId", storeID.String())
		}
		logger.Info(txCtx, "closing period deleted",
			"store_id", storeID,
			"period_from", periodFrom.Format(time.DateOnly),
			"period_to", periodTo.Format(time.DateOnly),
			"snapshots", deleted)
		return nil
	})
}

// ListByStore returns a store's snapshots ordered by period then tank
// code, optionally clipped to periods intersecting [fromDate, toDate].
func (e *Engine) ListByStore(ctx context.Context, storeID id.ID, fromDate, toDate *time.Time) ([]Snapshot, error) {
	if fromDate != nil {
		d := Day(*fromDate)
		fromDate = &d
	}
	if toDate != nil {
		d := Day(*toDate)
		toDate = &d
	}
	return e.closings.ListByStore(ctx, storeID, fromDate, toDate)
}

// ListPeriods returns the distinct closed periods of a store, newest
// first.
func (e *Engine) ListPeriods(ctx context.Context, storeID id.ID) ([]Period, error) {
	return e.closings.ListPeriods(ctx, storeID)
}
