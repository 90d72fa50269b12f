package closing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/domain/ledger"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memClosings is an in-memory closing Repository.
type memClosings struct {
	snapshots []*Snapshot
}

func (m *memClosings) CreateBatch(ctx context.Context, snapshots []*Snapshot) error {
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

func (m *memClosings) FindLatestBefore(ctx context.Context, tankID id.ID, day time.Time) (*Snapshot, error) {
	var latest *Snapshot
	for _, s := range m.snapshots {
		if s.TankID != tankID || !s.PeriodTo.Before(day) {
			continue
		}
		if latest == nil || s.PeriodTo.After(latest.PeriodTo) {
			latest = s
		}
	}
	if latest == nil {
		return nil, apperror.NewNotFound("closing snapshot", tankID)
	}
	return latest, nil
}

func (m *memClosings) ExistsForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (bool, error) {
	for _, s := range m.snapshots {
		if s.StoreID == storeID && s.PeriodFrom.Equal(periodFrom) && s.PeriodTo.Equal(periodTo) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memClosings) ListByStore(ctx context.Context, storeID id.ID, fromDate, toDate *time.Time) ([]Snapshot, error) {
	var out []Snapshot
	for _, s := range m.snapshots {
		if s.StoreID != storeID {
			continue
		}
		if fromDate != nil && s.PeriodTo.Before(*fromDate) {
			continue
		}
		if toDate != nil && s.PeriodFrom.After(*toDate) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memClosings) ListPeriods(ctx context.Context, storeID id.ID) ([]Period, error) {
	seen := map[time.Time]bool{}
	var out []Period
	for _, s := range m.snapshots {
		if s.StoreID != storeID || seen[s.PeriodTo] {
			continue
		}
		seen[s.PeriodTo] = true
		out = append(out, Period{PeriodFrom: s.PeriodFrom, PeriodTo: s.PeriodTo, ClosingDate: s.ClosingDate})
	}
	return out, nil
}

func (m *memClosings) MaxPeriodTo(ctx context.Context, storeID id.ID) (*time.Time, error) {
	var max *time.Time
	for _, s := range m.snapshots {
		if s.StoreID != storeID {
			continue
		}
		if max == nil || s.PeriodTo.After(*max) {
			t := s.PeriodTo
			max = &t
		}
	}
	return max, nil
}

func (m *memClosings) DeleteForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (int64, error) {
	kept := m.snapshots[:0]
	var deleted int64
	for _, s := range m.snapshots {
		if s.StoreID == storeID && s.PeriodFrom.Equal(periodFrom) && s.PeriodTo.Equal(periodTo) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	m.snapshots = kept
	return deleted, nil
}

// memLossConfigs is an in-memory LossConfigRepository.
type memLossConfigs struct {
	configs []*LossRateConfig
}

func (m *memLossConfigs) Create(ctx context.Context, c *LossRateConfig) error {
	m.configs = append(m.configs, c)
	return nil
}

func (m *memLossConfigs) GetByID(ctx context.Context, configID id.ID) (*LossRateConfig, error) {
	for _, c := range m.configs {
		if c.ID == configID {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("loss config", configID)
}

func (m *memLossConfigs) Update(ctx context.Context, c *LossRateConfig) error {
	for i, existing := range m.configs {
		if existing.ID == c.ID {
			m.configs[i] = c
			return nil
		}
	}
	return apperror.NewNotFound("loss config", c.ID)
}

func (m *memLossConfigs) Delete(ctx context.Context, configID id.ID) error {
	for i, c := range m.configs {
		if c.ID == configID {
			m.configs = append(m.configs[:i], m.configs[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("loss config", configID)
}

func (m *memLossConfigs) ListByStore(ctx context.Context, storeID id.ID) ([]LossRateConfig, error) {
	var out []LossRateConfig
	for _, c := range m.configs {
		if c.StoreID == storeID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memLossConfigs) ListAll(ctx context.Context) ([]LossRateConfig, error) {
	out := make([]LossRateConfig, 0, len(m.configs))
	for _, c := range m.configs {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memLossConfigs) FindEffective(ctx context.Context, storeID id.ID, category product.Category, day time.Time) (*LossRateConfig, error) {
	var found *LossRateConfig
	for _, c := range m.configs {
		if c.StoreID != storeID || c.ProductCategory != category {
			continue
		}
		if c.EffectiveFrom.After(day) {
			continue
		}
		if c.EffectiveTo != nil && c.EffectiveTo.Before(day) {
			continue
		}
		if found == nil || c.EffectiveFrom.After(found.EffectiveFrom) {
			found = c
		}
	}
	if found == nil {
		return nil, apperror.NewNotFound("loss config", string(category))
	}
	return found, nil
}

func (m *memLossConfigs) ExistsFor(ctx context.Context, storeID id.ID, category product.Category, effectiveFrom time.Time) (bool, error) {
	for _, c := range m.configs {
		if c.StoreID == storeID && c.ProductCategory == category && c.EffectiveFrom.Equal(effectiveFrom) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLossConfigs) CloseOpenEnded(ctx context.Context, storeID id.ID, category product.Category, startedBefore, effectiveTo time.Time) (int64, error) {
	var closed int64
	for _, c := range m.configs {
		if c.StoreID != storeID || c.ProductCategory != category {
			continue
		}
		if c.EffectiveTo != nil || !c.EffectiveFrom.Before(startedBefore) {
			continue
		}
		t := effectiveTo
		c.EffectiveTo = &t
		closed++
	}
	return closed, nil
}

// memEntries implements the subset of ledger sums the engine reaches
// through the calculator.
type memEntries struct {
	entries []*ledger.Entry
}

func (m *memEntries) sum(match func(*ledger.Entry) bool) ledger.Sums {
	sums := ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}
	for _, e := range m.entries {
		if e.SupersededByShiftID != nil || !match(e) {
			continue
		}
		sums.In = sums.In.Add(e.QuantityIn)
		sums.Out = sums.Out.Add(e.QuantityOut)
	}
	return sums
}

func (m *memEntries) CreateBatch(ctx context.Context, entries []*ledger.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memEntries) SumForTank(ctx context.Context, tankID id.ID, until *time.Time) (ledger.Sums, error) {
	return m.sum(func(e *ledger.Entry) bool {
		if e.TankID == nil || *e.TankID != tankID {
			return false
		}
		return until == nil || e.CreatedAt.Before(*until)
	}), nil
}

func (m *memEntries) SumForTankInPeriod(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (ledger.Sums, error) {
	return m.sum(func(e *ledger.Entry) bool {
		if e.TankID == nil || *e.TankID != tankID {
			return false
		}
		return !e.CreatedAt.Before(from) && e.CreatedAt.Before(toExclusive)
	}), nil
}

func (m *memEntries) SumForTanks(ctx context.Context, tankIDs []id.ID, until *time.Time) ([]ledger.TankSums, error) {
	var out []ledger.TankSums
	for _, tankID := range tankIDs {
		sums, _ := m.SumForTank(ctx, tankID, until)
		out = append(out, ledger.TankSums{TankID: tankID, Sums: sums})
	}
	return out, nil
}

func (m *memEntries) SumForWarehouseProduct(ctx context.Context, warehouseID, productID id.ID, until *time.Time) (ledger.Sums, error) {
	return m.sum(func(e *ledger.Entry) bool {
		if e.WarehouseID != warehouseID || e.ProductID != productID {
			return false
		}
		return until == nil || e.CreatedAt.Before(*until)
	}), nil
}

func (m *memEntries) SumForShift(ctx context.Context, warehouseID, productID, shiftID id.ID) (ledger.Sums, error) {
	return ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}, nil
}

func (m *memEntries) SumByWarehouse(ctx context.Context, warehouseID id.ID, until *time.Time) ([]ledger.ProductSums, error) {
	return nil, nil
}

func (m *memEntries) ListByRef(ctx context.Context, refType ledger.RefType, refID id.ID) ([]ledger.Entry, error) {
	return nil, nil
}

func (m *memEntries) ListByShift(ctx context.Context, shiftID id.ID) ([]ledger.Entry, error) {
	return nil, nil
}

func (m *memEntries) DeleteByRef(ctx context.Context, refType ledger.RefType, refID id.ID) (int64, error) {
	return 0, nil
}

func (m *memEntries) MarkSuperseded(ctx context.Context, entryIDs []id.ID, shiftID id.ID) error {
	return nil
}

type memStores struct{ stores map[id.ID]*store.Store }

func (m *memStores) Create(ctx context.Context, s *store.Store) error {
	m.stores[s.ID] = s
	return nil
}

func (m *memStores) GetByID(ctx context.Context, storeID id.ID) (*store.Store, error) {
	s, ok := m.stores[storeID]
	if !ok {
		return nil, apperror.NewNotFound("store", storeID)
	}
	return s, nil
}

func (m *memStores) GetByCode(ctx context.Context, code string) (*store.Store, error) {
	for _, s := range m.stores {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("store", code)
}

func (m *memStores) List(ctx context.Context, activeOnly bool) ([]store.Store, error) {
	return nil, nil
}

type memProducts struct{ products map[id.ID]*product.Product }

func (m *memProducts) Create(ctx context.Context, p *product.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *memProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (m *memProducts) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range m.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (m *memProducts) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	return nil, nil
}

type memTanks struct{ tanks map[id.ID]*tank.Tank }

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
	return nil, nil
}

func (m *memTanks) UpdateBaseline(ctx context.Context, tankID id.ID, baseline types.Quantity) error {
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

type memWarehouses struct{ warehouses map[id.ID]*warehouse.Warehouse }

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
	return nil, nil
}

// fixture wires a full engine over in-memory stores with one store, one
// diesel tank at baseline 1000 L, and a 0.0003 loss rate.
type fixture struct {
	engine    *Engine
	closings  *memClosings
	entries   *memEntries
	configs   *memLossConfigs
	storeID   id.ID
	tankID    id.ID
	productID id.ID
	whID      id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		closings:  &memClosings{},
		entries:   &memEntries{},
		configs:   &memLossConfigs{},
		storeID:   id.New(),
		tankID:    id.New(),
		productID: id.New(),
		whID:      id.New(),
	}

	stores := &memStores{stores: map[id.ID]*store.Store{
		f.storeID: {ID: f.storeID, Code: "S001", Name: "Depot One", IsActive: true},
	}}
	products := &memProducts{products: map[id.ID]*product.Product{
		f.productID: {ID: f.productID, Code: "DO-0.05S", Name: "Diesel Oil", Category: product.CategoryDiesel, IsActive: true},
	}}
	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		f.tankID: {
			ID: f.tankID, StoreID: f.storeID, ProductID: f.productID,
			TankCode: "T1", Name: "Tank 1",
			Capacity: types.NewQuantity(10000), CurrentStock: types.NewQuantity(1000),
			IsActive: true,
		},
	}}
	sid := f.storeID
	warehouses := &memWarehouses{warehouses: map[id.ID]*warehouse.Warehouse{
		f.whID: {ID: f.whID, StoreID: &sid, Code: "WH1", Name: "Depot One WH", Type: warehouse.TypeStore, IsActive: true},
	}}

	f.configs.configs = append(f.configs.configs, &LossRateConfig{
		ID:              id.New(),
		StoreID:         f.storeID,
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0003"),
		EffectiveFrom:   date(2025, 1, 1),
	})

	calculator := ledger.NewCalculator(f.entries, tanks, warehouses)
	lossRates := NewLossConfigService(f.configs)
	f.engine = NewEngine(f.closings, lossRates, calculator, stores, warehouses, tanks, products, fakeTx{})
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) book(in, out float64, at time.Time) {
	tid := f.tankID
	refType := ledger.RefImport
	if out > 0 {
		refType = ledger.RefExport
	}
	f.entries.entries = append(f.entries.entries, &ledger.Entry{
		ID:          id.New(),
		WarehouseID: f.whID,
		ProductID:   f.productID,
		TankID:      &tid,
		RefType:     refType,
		RefID:       id.New(),
		QuantityIn:  types.NewQuantity(in),
		QuantityOut: types.NewQuantity(out),
		CreatedAt:   at,
	})
}

func TestExecuteClosingFirstPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(500, 0, date(2026, 1, 10))
	f.book(0, 200, date(2026, 1, 20))

	snapshots, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID:    f.storeID,
		PeriodFrom: date(2026, 1, 1),
		PeriodTo:   date(2026, 1, 31),
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	s := snapshots[0]
	assert.Equal(t, f.tankID, s.TankID)
	assert.True(t, s.OpeningBalance.Equal(types.NewQuantity(1000)), "opening %s", s.OpeningBalance)
	assert.True(t, s.ImportQuantity.Equal(types.NewQuantity(500)))
	assert.True(t, s.ExportQuantity.Equal(types.NewQuantity(200)))
	assert.True(t, s.LossAmount.Equal(types.MustQuantity("0.06")), "loss %s", s.LossAmount)
	assert.True(t, s.ClosingBalance.Equal(types.MustQuantity("1299.94")), "closing %s", s.ClosingBalance)
	assert.Equal(t, product.CategoryDiesel, s.ProductCategory)
	require.NotNil(t, s.LossConfigID)
}

func TestExecuteClosingChainsOpeningBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(500, 0, date(2026, 1, 10))
	f.book(0, 200, date(2026, 1, 20))

	_, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 1, 1), PeriodTo: date(2026, 1, 31),
	})
	require.NoError(t, err)

	// The second period opens with the frozen closing balance, which
	// already carries the loss deduction the raw ledger does not.
	snapshots, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 2, 1), PeriodTo: date(2026, 2, 28),
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.True(t, snapshots[0].OpeningBalance.Equal(types.MustQuantity("1299.94")),
		"opening %s", snapshots[0].OpeningBalance)
	assert.True(t, snapshots[0].ClosingBalance.Equal(types.MustQuantity("1299.94")))
}

func TestExecuteClosingDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := Request{StoreID: f.storeID, PeriodFrom: date(2026, 1, 1), PeriodTo: date(2026, 1, 31)}
	_, err := f.engine.ExecuteClosing(ctx, req)
	require.NoError(t, err)

	_, err = f.engine.ExecuteClosing(ctx, req)
	assert.True(t, apperror.IsConflict(err), "got %v", err)
}

func TestExecuteClosingInvalidPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 2, 1), PeriodTo: date(2026, 1, 1),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestExecuteClosingMissingLossConfigUsesZeroRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.configs.configs = nil
	f.book(0, 200, date(2026, 1, 20))

	snapshots, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 1, 1), PeriodTo: date(2026, 1, 31),
	})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.True(t, snapshots[0].LossAmount.IsZero())
	assert.Nil(t, snapshots[0].LossConfigID)
	assert.True(t, snapshots[0].ClosingBalance.Equal(types.NewQuantity(800)))
}

func TestPreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(500, 0, date(2026, 1, 10))

	preview, err := f.engine.PreviewClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 1, 1), PeriodTo: date(2026, 1, 31),
	})
	require.NoError(t, err)
	require.Len(t, preview.Items, 1)
	assert.True(t, preview.Items[0].ClosingBalance.Equal(types.NewQuantity(1500)))
	assert.Empty(t, f.closings.snapshots)
}

func TestDeleteClosingOnlyLatestPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 1, 1), PeriodTo: date(2026, 1, 31),
	})
	require.NoError(t, err)
	_, err = f.engine.ExecuteClosing(ctx, Request{
		StoreID: f.storeID, PeriodFrom: date(2026, 2, 1), PeriodTo: date(2026, 2, 28),
	})
	require.NoError(t, err)

	err = f.engine.DeleteClosing(ctx, f.storeID, date(2026, 1, 1), date(2026, 1, 31))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotLatestPeriod, appErr.Code)

	require.NoError(t, f.engine.DeleteClosing(ctx, f.storeID, date(2026, 2, 1), date(2026, 2, 28)))
	require.NoError(t, f.engine.DeleteClosing(ctx, f.storeID, date(2026, 1, 1), date(2026, 1, 31)))
	assert.Empty(t, f.closings.snapshots)
}

func TestDeleteClosingNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.engine.DeleteClosing(ctx, f.storeID, date(2026, 1, 1), date(2026, 1, 31))
	assert.True(t, apperror.IsNotFound(err))
}
