package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
)

// memLedger is an in-memory Repository that mirrors the SQL semantics:
// superseded entries are excluded from every sum.
type memLedger struct {
	entries []*Entry
}

func (m *memLedger) live() []*Entry {
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.SupersededByShiftID == nil {
			out = append(out, e)
		}
	}
	return out
}

func (m *memLedger) CreateBatch(ctx context.Context, entries []*Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memLedger) SumForTank(ctx context.Context, tankID id.ID, until *time.Time) (Sums, error) {
	var sums Sums
	sums.In, sums.Out = types.ZeroQuantity(), types.ZeroQuantity()
	for _, e := range m.live() {
		if e.TankID == nil || *e.TankID != tankID {
			continue
		}
		if until != nil && !e.CreatedAt.Before(*until) {
			continue
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
	}
	return sums, nil
}

func (m *memLedger) SumForTankInPeriod(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (Sums, error) {
	var sums Sums
	sums.In, sums.Out = types.ZeroQuantity(), types.ZeroQuantity()
	for _, e := range m.live() {
		if e.TankID == nil || *e.TankID != tankID {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(toExclusive) {
			continue
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
	}
	return sums, nil
}

func (m *memLedger) SumForTanks(ctx context.Context, tankIDs []id.ID, until *time.Time) ([]TankSums, error) {
	byTank := make(map[id.ID]*TankSums)
	for _, tankID := range tankIDs {
		sums, err := m.SumForTank(ctx, tankID, until)
		if err != nil {
			return nil, err
		}
		if sums.In.IsZero() && sums.Out.IsZero() {
			continue
		}
		byTank[tankID] = &TankSums{TankID: tankID, Sums: sums}
	}
	out := make([]TankSums, 0, len(byTank))
	for _, s := range byTank {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memLedger) SumForWarehouseProduct(ctx context.Context, warehouseID, productID id.ID, until *time.Time) (Sums, error) {
	var sums Sums
	sums.In, sums.Out = types.ZeroQuantity(), types.ZeroQuantity()
	for _, e := range m.live() {
		if e.WarehouseID != warehouseID || e.ProductID != productID {
			continue
		}
		if until != nil && !e.CreatedAt.Before(*until) {
			continue
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
	}
	return sums, nil
}

func (m *memLedger) SumForShift(ctx context.Context, warehouseID, productID, shiftID id.ID) (Sums, error) {
	var sums Sums
	sums.In, sums.Out = types.ZeroQuantity(), types.ZeroQuantity()
	for _, e := range m.live() {
		if e.WarehouseID != warehouseID || e.ProductID != productID {
			continue
		}
		if e.ShiftID == nil || *e.ShiftID != shiftID {
			continue
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
	}
	return sums, nil
}

func (m *memLedger) SumByWarehouse(ctx context.Context, warehouseID id.ID, until *time.Time) ([]ProductSums, error) {
	byProduct := make(map[id.ID]*ProductSums)
	order := []id.ID{}
	for _, e := range m.live() {
		if e.WarehouseID != warehouseID {
			continue
		}
		if until != nil && !e.CreatedAt.Before(*until) {
			continue
		}
		s, ok := byProduct[e.ProductID]
		if !ok {
			s = &ProductSums{ProductID: e.ProductID, Sums: Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}}
			byProduct[e.ProductID] = s
			order = append(order, e.ProductID)
		}
		s.In = s.In.Add(e.QuantityIn)
		s.Out = s.Out.Add(e.QuantityOut)
	}
	out := make([]ProductSums, 0, len(order))
	for _, pid := range order {
		out = append(out, *byProduct[pid])
	}
	return out, nil
}

func (m *memLedger) ListByRef(ctx context.Context, refType RefType, refID id.ID) ([]Entry, error) {
	var out []Entry
	for _, e := range m.entries {
		if e.RefType == refType && e.RefID == refID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memLedger) ListByShift(ctx context.Context, shiftID id.ID) ([]Entry, error) {
	var out []Entry
	for _, e := range m.live() {
		if e.ShiftID != nil && *e.ShiftID == shiftID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memLedger) DeleteByRef(ctx context.Context, refType RefType, refID id.ID) (int64, error) {
	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.RefType == refType && e.RefID == refID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

func (m *memLedger) MarkSuperseded(ctx context.Context, entryIDs []id.ID, shiftID id.ID) error {
	ids := make(map[id.ID]bool, len(entryIDs))
	for _, entryID := range entryIDs {
		ids[entryID] = true
	}
	for _, e := range m.entries {
		if ids[e.ID] && e.SupersededByShiftID == nil {
			sid := shiftID
			e.SupersededByShiftID = &sid
		}
	}
	return nil
}

// memTanks is an in-memory tank.Repository.
type memTanks struct {
	tanks map[id.ID]*tank.Tank
}

func (m *memTanks) Create(ctx context.Context, t *tank.Tank) error {
	m.tanks[t.ID] = t
	return nil
}

func (m *memTanks) GetByID(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	t, ok := m.tanks[tankID]
	if !ok {
		return nil, apperror.NewNotFound("tank", tankID)
	}
	return t, nil
}

func (m *memTanks) ListByStore(ctx context.Context, storeID id.ID, activeOnly bool) ([]tank.Tank, error) {
	var out []tank.Tank
	for _, t := range m.tanks {
		if t.StoreID != storeID {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTanks) List(ctx context.Context, activeOnly bool) ([]tank.Tank, error) {
	var out []tank.Tank
	for _, t := range m.tanks {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTanks) UpdateBaseline(ctx context.Context, tankID id.ID, baseline types.Quantity) error {
	t, ok := m.tanks[tankID]
	if !ok {
		return apperror.NewNotFound("tank", tankID)
	}
	t.CurrentStock = baseline
	return nil
}

func (m *memTanks) SumBaselines(ctx context.Context, storeID, productID id.ID) (types.Quantity, error) {
	total := types.ZeroQuantity()
	for _, t := range m.tanks {
		if t.StoreID == storeID && t.ProductID == productID {
			total = total.Add(t.CurrentStock)
		}
	}
	return total, nil
}

// memWarehouses is an in-memory warehouse.Repository.
type memWarehouses struct {
	warehouses map[id.ID]*warehouse.Warehouse
}

func (m *memWarehouses) Create(ctx context.Context, w *warehouse.Warehouse) error {
	m.warehouses[w.ID] = w
	return nil
}

func (m *memWarehouses) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return w, nil
}

func (m *memWarehouses) GetStoreWarehouse(ctx context.Context, storeID id.ID) (*warehouse.Warehouse, error) {
	for _, w := range m.warehouses {
		if w.StoreID != nil && *w.StoreID == storeID && w.Type == warehouse.TypeStore {
			return w, nil
		}
	}
	return nil, apperror.NewNotFound("store warehouse", storeID)
}

func (m *memWarehouses) List(ctx context.Context, activeOnly bool) ([]warehouse.Warehouse, error) {
	var out []warehouse.Warehouse
	for _, w := range m.warehouses {
		if activeOnly && !w.IsActive {
			continue
		}
		out = append(out, *w)
	}
	return out, nil
}

func entry(warehouseID id.ID, tankID id.ID, in, out float64, at time.Time) *Entry {
	tid := tankID
	e := &Entry{
		ID:          id.New(),
		WarehouseID: warehouseID,
		ProductID:   id.New(),
		TankID:      &tid,
		RefType:     RefImport,
		RefID:       id.New(),
		QuantityIn:  types.NewQuantity(in),
		QuantityOut: types.NewQuantity(out),
		CreatedAt:   at,
	}
	if out > 0 {
		e.RefType = RefExport
	}
	return e
}

func TestTankBalance(t *testing.T) {
	ctx := context.Background()
	tankID := id.New()
	warehouseID := id.New()
	now := time.Now()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {ID: tankID, CurrentStock: types.NewQuantity(1000), Capacity: types.NewQuantity(5000), IsActive: true},
	}}
	entries := &memLedger{}
	require.NoError(t, entries.CreateBatch(ctx, []*Entry{
		entry(warehouseID, tankID, 500, 0, now.Add(-2*time.Hour)),
		entry(warehouseID, tankID, 0, 200, now.Add(-time.Hour)),
	}))

	calc := NewCalculator(entries, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	balance, err := calc.TankBalance(ctx, tankID, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewQuantity(1300)), "got %s", balance)

	// asOf before the export sees only the import
	asOf := now.Add(-90 * time.Minute)
	balance, err = calc.TankBalance(ctx, tankID, &asOf)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewQuantity(1500)), "got %s", balance)
}

func TestTankBalanceExcludesSuperseded(t *testing.T) {
	ctx := context.Background()
	tankID := id.New()
	warehouseID := id.New()
	shiftID := id.New()
	now := time.Now()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {ID: tankID, CurrentStock: types.NewQuantity(1000), IsActive: true},
	}}

	raw := entry(warehouseID, tankID, 0, 300, now)
	entries := &memLedger{}
	require.NoError(t, entries.CreateBatch(ctx, []*Entry{raw}))

	calc := NewCalculator(entries, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	balance, err := calc.TankBalance(ctx, tankID, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewQuantity(700)))

	// shift summary replaces the raw entry: the raw row drops out, the
	// summary row takes over
	require.NoError(t, entries.MarkSuperseded(ctx, []id.ID{raw.ID}, shiftID))
	summary := entry(warehouseID, tankID, 0, 300, now)
	summary.ShiftID = &shiftID
	summary.RefType = RefShiftSale
	require.NoError(t, entries.CreateBatch(ctx, []*Entry{summary}))

	balance, err = calc.TankBalance(ctx, tankID, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewQuantity(700)), "summary must not double count, got %s", balance)
}

func TestTankBalanceNoHistory(t *testing.T) {
	ctx := context.Background()
	tankID := id.New()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {ID: tankID, CurrentStock: types.NewQuantity(250), IsActive: true},
	}}
	calc := NewCalculator(&memLedger{}, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	balance, err := calc.TankBalance(ctx, tankID, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewQuantity(250)))
}

func TestCanExport(t *testing.T) {
	ctx := context.Background()
	tankID := id.New()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {ID: tankID, CurrentStock: types.NewQuantity(100), IsActive: true},
	}}
	calc := NewCalculator(&memLedger{}, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	check, err := calc.CanExport(ctx, tankID, types.NewQuantity(80))
	require.NoError(t, err)
	assert.True(t, check.CanExport)
	assert.True(t, check.Shortage.IsZero())

	check, err = calc.CanExport(ctx, tankID, types.NewQuantity(150))
	require.NoError(t, err)
	assert.False(t, check.CanExport)
	assert.True(t, check.Shortage.Equal(types.NewQuantity(50)), "got %s", check.Shortage)

	_, err = calc.CanExport(ctx, tankID, types.ZeroQuantity())
	assert.True(t, apperror.IsValidation(err))
}

func TestWillExceedCapacity(t *testing.T) {
	ctx := context.Background()
	tankID := id.New()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {ID: tankID, CurrentStock: types.NewQuantity(4000), Capacity: types.NewQuantity(5000), IsActive: true},
	}}
	calc := NewCalculator(&memLedger{}, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	check, err := calc.WillExceedCapacity(ctx, tankID, types.NewQuantity(1000))
	require.NoError(t, err)
	assert.False(t, check.WillExceed)
	assert.True(t, check.Headroom.Equal(types.NewQuantity(1000)))

	check, err = calc.WillExceedCapacity(ctx, tankID, types.NewQuantity(1001))
	require.NoError(t, err)
	assert.True(t, check.WillExceed)
}

func TestStoreTankStockFillPercent(t *testing.T) {
	ctx := context.Background()
	storeID := id.New()
	tankID := id.New()
	zeroCapID := id.New()

	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		tankID: {
			ID: tankID, StoreID: storeID, TankCode: "T1",
			CurrentStock: types.NewQuantity(2500), Capacity: types.NewQuantity(5000), IsActive: true,
		},
		zeroCapID: {
			ID: zeroCapID, StoreID: storeID, TankCode: "T2",
			CurrentStock: types.NewQuantity(100), IsActive: true,
		},
	}}
	calc := NewCalculator(&memLedger{}, tanks, &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{}})

	stock, err := calc.StoreTankStock(ctx, storeID)
	require.NoError(t, err)
	require.Len(t, stock, 2)

	byCode := map[string]TankStock{}
	for _, s := range stock {
		byCode[s.TankCode] = s
	}
	assert.True(t, byCode["T1"].FillPercent.Equal(types.NewQuantity(50)))
	assert.True(t, byCode["T2"].FillPercent.IsZero(), "zero capacity reports zero fill")
}

func TestEntryValidate(t *testing.T) {
	ctx := context.Background()

	e := &Entry{
		WarehouseID: id.New(),
		ProductID:   id.New(),
		RefType:     RefImport,
		RefID:       id.New(),
		QuantityIn:  types.NewQuantity(10),
		QuantityOut: types.NewQuantity(5),
	}
	assert.True(t, apperror.IsValidation(e.Validate(ctx)), "both directions must be rejected")

	e.QuantityOut = types.ZeroQuantity()
	assert.NoError(t, e.Validate(ctx))
}
