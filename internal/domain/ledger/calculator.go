package ledger

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/pkg/logger"
)

// TankStock is a tank balance with capacity context.
type TankStock struct {
	TankID      id.ID          `json:"tankId"`
	TankCode    string         `json:"tankCode"`
	TankName    string         `json:"tankName"`
	ProductID   id.ID          `json:"productId"`
	Capacity    types.Quantity `json:"capacity"`
	Balance     types.Quantity `json:"balance"`
	FillPercent types.Quantity `json:"fillPercent"`
}

// ProductStock is a warehouse balance for one product.
type ProductStock struct {
	ProductID   id.ID          `json:"productId"`
	QuantityIn  types.Quantity `json:"quantityIn"`
	QuantityOut types.Quantity `json:"quantityOut"`
	Balance     types.Quantity `json:"balance"`
}

// ExportCheck is the result of an availability probe.
type ExportCheck struct {
	CanExport bool           `json:"canExport"`
	Available types.Quantity `json:"available"`
	Requested types.Quantity `json:"requested"`
	Shortage  types.Quantity `json:"shortage"`
}

// CapacityCheck is the result of a headroom probe.
type CapacityCheck struct {
	WillExceed bool           `json:"willExceed"`
	Current    types.Quantity `json:"current"`
	Capacity   types.Quantity `json:"capacity"`
	Headroom   types.Quantity `json:"headroom"`
}

// Calculator derives balances from the ledger. A tank balance is the
// tank baseline plus the net of its qualifying entries; warehouse
// aggregates derive from the ledger alone, initial stock having
// entered it through INITIAL_STOCK entries.
type Calculator struct {
	entries    Repository
	tanks      tank.Repository
	warehouses warehouse.Repository
}

// NewCalculator constructs a balance calculator.
func NewCalculator(entries Repository, tanks tank.Repository, warehouses warehouse.Repository) *Calculator {
	return &Calculator{entries: entries, tanks: tanks, warehouses: warehouses}
}

// TankBalance returns the tank balance as of the given instant, or the
// current balance when asOf is nil. A tank with no history reports its
// baseline.
func (c *Calculator) TankBalance(ctx context.Context, tankID id.ID, asOf *time.Time) (types.Quantity, error) {
	t, err := c.tanks.GetByID(ctx, tankID)
	if err != nil {
		return types.ZeroQuantity(), err
	}
	sums, err := c.entries.SumForTank(ctx, tankID, asOf)
	if err != nil {
		return types.ZeroQuantity(), err
	}
	return t.CurrentStock.Add(sums.Net()), nil
}

// TankPeriodSums returns the inbound and outbound totals of a tank over
// [from, toExclusive).
func (c *Calculator) TankPeriodSums(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (Sums, error) {
	return c.entries.SumForTankInPeriod(ctx, tankID, from, toExclusive)
}

// TanksBalance returns balances for all requested tanks, zero-filled
// from the baseline for tanks without ledger history.
func (c *Calculator) TanksBalance(ctx context.Context, tankIDs []id.ID, asOf *time.Time) (map[id.ID]types.Quantity, error) {
	balances := make(map[id.ID]types.Quantity, len(tankIDs))
	for _, tankID := range tankIDs {
		t, err := c.tanks.GetByID(ctx, tankID)
		if err != nil {
			return nil, err
		}
		balances[tankID] = t.CurrentStock
	}
	if len(tankIDs) == 0 {
		return balances, nil
	}
	sums, err := c.entries.SumForTanks(ctx, tankIDs, asOf)
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		balances[s.TankID] = balances[s.TankID].Add(s.Net())
	}
	return balances, nil
}

// WarehouseProductBalance returns the net balance of a product in a
// warehouse as of the given instant.
func (c *Calculator) WarehouseProductBalance(ctx context.Context, warehouseID, productID id.ID, asOf *time.Time) (types.Quantity, error) {
	sums, err := c.entries.SumForWarehouseProduct(ctx, warehouseID, productID, asOf)
	if err != nil {
		return types.ZeroQuantity(), err
	}
	return sums.Net(), nil
}

// WarehouseStock returns per-product balances of a warehouse.
func (c *Calculator) WarehouseStock(ctx context.Context, warehouseID id.ID) ([]ProductStock, error) {
	if _, err := c.warehouses.GetByID(ctx, warehouseID); err != nil {
		return nil, err
	}
	sums, err := c.entries.SumByWarehouse(ctx, warehouseID, nil)
	if err != nil {
		return nil, err
	}
	stock := make([]ProductStock, 0, len(sums))
	for _, s := range sums {
		stock = append(stock, ProductStock{
			ProductID:   s.ProductID,
			QuantityIn:  s.In,
			QuantityOut: s.Out,
			Balance:     s.Net(),
		})
	}
	return stock, nil
}

// StoreTankStock returns the current balance and fill level of every
// active tank of a store.
func (c *Calculator) StoreTankStock(ctx context.Context, storeID id.ID) ([]TankStock, error) {
	tanks, err := c.tanks.ListByStore(ctx, storeID, true)
	if err != nil {
		return nil, err
	}
	if len(tanks) == 0 {
		return []TankStock{}, nil
	}
	tankIDs := make([]id.ID, len(tanks))
	for i, t := range tanks {
		tankIDs[i] = t.ID
	}
	balances, err := c.TanksBalance(ctx, tankIDs, nil)
	if err != nil {
		return nil, err
	}
	stock := make([]TankStock, 0, len(tanks))
	for _, t := range tanks {
		balance := balances[t.ID]
		stock = append(stock, TankStock{
			TankID:      t.ID,
			TankCode:    t.TankCode,
			TankName:    t.Name,
			ProductID:   t.ProductID,
			Capacity:    t.Capacity,
			Balance:     balance,
			FillPercent: t.FillPercent(balance),
		})
	}
	return stock, nil
}

// CanExport probes whether a tank holds enough fuel for a requested
// outbound quantity. A shortage never errors; callers decide whether
// shortage is fatal.
func (c *Calculator) CanExport(ctx context.Context, tankID id.ID, requested types.Quantity) (ExportCheck, error) {
	if !requested.IsPositive() {
		return ExportCheck{}, apperror.NewValidation("export quantity must be positive").
			WithDetail("requested", requested.String())
	}
	available, err := c.TankBalance(ctx, tankID, nil)
	if err != nil {
		return ExportCheck{}, err
	}
	check := ExportCheck{
		Available: available,
		Requested: requested,
		Shortage:  types.ZeroQuantity(),
	}
	if available.GreaterThanOrEqual(requested) {
		check.CanExport = true
		return check, nil
	}
	check.Shortage = requested.Sub(available)
	logger.Debug(ctx, "tank short for export",
		"tank_id", tankID, "requested", requested, "available", available)
	return check, nil
}

// WillExceedCapacity probes whether an inbound quantity would overfill
// a tank.
func (c *Calculator) WillExceedCapacity(ctx context.Context, tankID id.ID, inbound types.Quantity) (CapacityCheck, error) {
	if !inbound.IsPositive() {
		return CapacityCheck{}, apperror.NewValidation("inbound quantity must be positive").
			WithDetail("inbound", inbound.String())
	}
	t, err := c.tanks.GetByID(ctx, tankID)
	if err != nil {
		return CapacityCheck{}, err
	}
	current, err := c.TankBalance(ctx, tankID, nil)
	if err != nil {
		return CapacityCheck{}, err
	}
	check := CapacityCheck{
		Current:  current,
		Capacity: t.Capacity,
		Headroom: t.Capacity.Sub(current),
	}
	check.WillExceed = current.Add(inbound).GreaterThan(t.Capacity)
	return check, nil
}
