package documents

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
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/domain/ledger"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memDocs struct {
	docs         map[id.ID]*Document
	items        map[id.ID][]Item
	compartments map[id.ID][]Compartment
}

func newMemDocs() *memDocs {
	return &memDocs{
		docs:         map[id.ID]*Document{},
		items:        map[id.ID][]Item{},
		compartments: map[id.ID][]Compartment{},
	}
}

func (m *memDocs) Create(ctx context.Context, d *Document) error {
	m.docs[d.ID] = d
	return nil
}

func (m *memDocs) CreateItems(ctx context.Context, items []*Item) error {
	for _, it := range items {
		m.items[it.DocumentID] = append(m.items[it.DocumentID], *it)
	}
	return nil
}

func (m *memDocs) CreateCompartments(ctx context.Context, compartments []*Compartment) error {
	for _, c := range compartments {
		m.compartments[c.DocumentID] = append(m.compartments[c.DocumentID], *c)
	}
	return nil
}

func (m *memDocs) GetByID(ctx context.Context, documentID id.ID) (*Document, error) {
	d, ok := m.docs[documentID]
	if !ok {
		return nil, apperror.NewNotFound("document", documentID)
	}
	return d, nil
}

func (m *memDocs) GetItems(ctx context.Context, documentID id.ID) ([]Item, error) {
	return m.items[documentID], nil
}

func (m *memDocs) GetCompartments(ctx context.Context, documentID id.ID) ([]Compartment, error) {
	return m.compartments[documentID], nil
}

func (m *memDocs) ListByWarehouse(ctx context.Context, warehouseID id.ID, docType *DocType) ([]Document, error) {
	var out []Document
	for _, d := range m.docs {
		if d.WarehouseID != warehouseID {
			continue
		}
		if docType != nil && d.DocType != *docType {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDocs) MarkReversed(ctx context.Context, documentID id.ID, at time.Time) error {
	d, ok := m.docs[documentID]
	if !ok {
		return apperror.NewNotFound("document", documentID)
	}
	d.Status = StatusReversed
	d.ReversedAt = &at
	return nil
}

type memEntries struct {
	entries []*ledger.Entry
}

func (m *memEntries) CreateBatch(ctx context.Context, entries []*ledger.Entry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memEntries) SumForTank(ctx context.Context, tankID id.ID, until *time.Time) (ledger.Sums, error) {
	sums := ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}
	for _, e := range m.entries {
		if e.TankID == nil || *e.TankID != tankID || e.SupersededByShiftID != nil {
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

func (m *memEntries) SumForTankInPeriod(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (ledger.Sums, error) {
	return ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}, nil
}

func (m *memEntries) SumForTanks(ctx context.Context, tankIDs []id.ID, until *time.Time) ([]ledger.TankSums, error) {
	return nil, nil
}

func (m *memEntries) SumForWarehouseProduct(ctx context.Context, warehouseID, productID id.ID, until *time.Time) (ledger.Sums, error) {
	return ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}, nil
}

func (m *memEntries) SumForShift(ctx context.Context, warehouseID, productID, shiftID id.ID) (ledger.Sums, error) {
	return ledger.Sums{In: types.ZeroQuantity(), Out: types.ZeroQuantity()}, nil
}

func (m *memEntries) SumByWarehouse(ctx context.Context, warehouseID id.ID, until *time.Time) ([]ledger.ProductSums, error) {
	return nil, nil
}

func (m *memEntries) ListByRef(ctx context.Context, refType ledger.RefType, refID id.ID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range m.entries {
		if e.RefType == refType && e.RefID == refID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memEntries) ListByShift(ctx context.Context, shiftID id.ID) ([]ledger.Entry, error) {
	return nil, nil
}

func (m *memEntries) DeleteByRef(ctx context.Context, refType ledger.RefType, refID id.ID) (int64, error) {
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

func (m *memEntries) MarkSuperseded(ctx context.Context, entryIDs []id.ID, shiftID id.ID) error {
	return nil
}

type memTanks struct{ tanks map[id.ID]*tank.Tank }

func (m *memTanks) Create(ctx context.Context, t *tank.Tank) error { return nil }

func (m *memTanks) GetByID(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	t, ok := m.tanks[tankID]
	if !ok {
		return nil, apperror.NewNotFound("tank", tankID)
	}
	return t, nil
}

func (m *memTanks) ListByStore(ctx context.Context, storeID id.ID, activeOnly bool) ([]tank.Tank, error) {
	return nil, nil
}

func (m *memTanks) List(ctx context.Context, activeOnly bool) ([]tank.Tank, error) { return nil, nil }

func (m *memTanks) UpdateBaseline(ctx context.Context, tankID id.ID, baseline types.Quantity) error {
	return nil
}

func (m *memTanks) SumBaselines(ctx context.Context, storeID, productID id.ID) (types.Quantity, error) {
	return types.ZeroQuantity(), nil
}

type memProducts struct{ products map[id.ID]*product.Product }

func (m *memProducts) Create(ctx context.Context, p *product.Product) error { return nil }

func (m *memProducts) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (m *memProducts) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return nil, apperror.NewNotFound("product", code)
}

func (m *memProducts) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	return nil, nil
}

type memWarehouses struct{}

func (memWarehouses) Create(ctx context.Context, w *warehouse.Warehouse) error { return nil }

func (memWarehouses) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	return nil, apperror.NewNotFound("warehouse", warehouseID)
}

func (memWarehouses) GetStoreWarehouse(ctx context.Context, storeID id.ID) (*warehouse.Warehouse, error) {
	return nil, apperror.NewNotFound("store warehouse", storeID)
}

func (memWarehouses) List(ctx context.Context, activeOnly bool) ([]warehouse.Warehouse, error) {
	return nil, nil
}

type fixture struct {
	service   *Service
	docs      *memDocs
	entries   *memEntries
	whID      id.ID
	tankID    id.ID
	productID id.ID
}

func newFixture(t *testing.T, baseline float64) *fixture {
	t.Helper()
	f := &fixture{
		docs:      newMemDocs(),
		entries:   &memEntries{},
		whID:      id.New(),
		tankID:    id.New(),
		productID: id.New(),
	}
	tanks := &memTanks{tanks: map[id.ID]*tank.Tank{
		f.tankID: {
			ID: f.tankID, StoreID: id.New(), ProductID: f.productID,
			TankCode: "T1", Capacity: types.NewQuantity(10000),
			CurrentStock: types.NewQuantity(baseline), IsActive: true,
		},
	}}
	products := &memProducts{products: map[id.ID]*product.Product{
		f.productID: {ID: f.productID, Code: "DO-0.05S", Name: "Diesel Oil", Category: product.CategoryDiesel},
	}}
	calculator := ledger.NewCalculator(f.entries, tanks, memWarehouses{})
	f.service = NewService(f.docs, f.entries, calculator, tanks, products, fakeTx{})
	return f
}

func TestCreateImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	tid := f.tankID

	doc, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeImport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []CreateItem{
			{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(500)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, doc.Status)

	require.Len(t, f.entries.entries, 1)
	e := f.entries.entries[0]
	assert.Equal(t, ledger.RefImport, e.RefType)
	assert.Equal(t, doc.ID, e.RefID)
	assert.True(t, e.QuantityIn.Equal(types.NewQuantity(500)))
	assert.True(t, e.QuantityOut.IsZero())
	require.Len(t, f.docs.items[doc.ID], 1)
}

func TestCreateExportInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100)
	tid := f.tankID

	_, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeExport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []CreateItem{
			{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(150)},
		},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "50", appErr.Details["shortage"])

	assert.Empty(t, f.docs.docs, "nothing persisted on refusal")
	assert.Empty(t, f.entries.entries)
}

func TestCreateExportWithinStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 500)
	tid := f.tankID

	doc, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeExport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []CreateItem{
			{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(200)},
		},
	})
	require.NoError(t, err)

	require.Len(t, f.entries.entries, 1)
	assert.True(t, f.entries.entries[0].QuantityOut.Equal(types.NewQuantity(200)))
	assert.Equal(t, ledger.RefExport, f.entries.entries[0].RefType)
	assert.Equal(t, doc.ID, f.entries.entries[0].RefID)
}

func TestCreateAdjustmentSkipsAvailabilityCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	tid := f.tankID

	// an outbound adjustment may drive the tank negative, the gauge
	// correction workflow relies on it
	_, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeAdjustment,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []CreateItem{
			{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(30)},
		},
	})
	require.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	_, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeImport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, apperror.IsValidation(err), "no items")

	_, err = f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     "PURCHASE",
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items:       []CreateItem{{ProductID: f.productID, Quantity: types.NewQuantity(10)}},
	})
	assert.True(t, apperror.IsValidation(err), "unknown type")

	_, err = f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeImport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items:       []CreateItem{{ProductID: f.productID, Quantity: types.ZeroQuantity()}},
	})
	assert.True(t, apperror.IsValidation(err), "zero quantity")
}

func TestReverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	tid := f.tankID

	doc, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID,
		DocType:     TypeImport,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items: []CreateItem{
			{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(500)},
		},
	})
	require.NoError(t, err)
	require.Len(t, f.entries.entries, 1)

	require.NoError(t, f.service.Reverse(ctx, doc.ID))
	assert.Empty(t, f.entries.entries, "ledger entries removed")
	assert.Equal(t, StatusReversed, f.docs.docs[doc.ID].Status)
	require.NotNil(t, f.docs.docs[doc.ID].ReversedAt)

	err = f.service.Reverse(ctx, doc.ID)
	assert.True(t, apperror.IsConflict(err), "double reversal")
}

func TestReverseUnknownDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	assert.True(t, apperror.IsNotFound(f.service.Reverse(ctx, id.New())))
}

func TestCreateTruckReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	result, err := f.service.CreateTruckReceipt(ctx, TruckReceiptRequest{
		WarehouseID:  f.whID,
		DocDate:      time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		LicensePlate: "51C-12345",
		SupplierName: "Petrolimex",
		Compartments: []TruckCompartment{
			{
				CompartmentNumber: 1, ProductID: f.productID,
				TruckTemperature: 30, TruckVolume: 6000,
				ActualTemperature: 28, ActualVolume: 6010, ReceivedVolume: 5995,
			},
			{
				CompartmentNumber: 2, ProductID: f.productID,
				TruckTemperature: 30, TruckVolume: 4000,
				ActualTemperature: 28, ActualVolume: 4005, ReceivedVolume: 3999,
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, TypeImport, result.Document.DocType)
	assert.Equal(t, "51C-12345", result.Document.LicensePlate)
	require.Len(t, result.Compartments, 2)
	assert.InDelta(t, 5.0, result.Compartments[0].LossVolume, 1e-9)
	require.NotNil(t, result.Calculation)

	require.Len(t, f.entries.entries, 2)
	for _, e := range f.entries.entries {
		assert.Equal(t, ledger.RefImport, e.RefType)
		assert.True(t, e.QuantityIn.IsPositive())
	}

	// Get recomputes the reconciliation from the stored compartments
	loaded, err := f.service.Get(ctx, result.Document.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Calculation)
	assert.Equal(t, result.Calculation.Status, loaded.Calculation.Status)
}

func TestCreateTruckReceiptValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	_, err := f.service.CreateTruckReceipt(ctx, TruckReceiptRequest{
		WarehouseID: f.whID,
		DocDate:     time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Compartments: []TruckCompartment{
			{CompartmentNumber: 1, ProductID: f.productID, TruckVolume: 1000, ActualVolume: 1000, ReceivedVolume: 1000},
		},
	})
	assert.True(t, apperror.IsValidation(err), "missing license plate")

	_, err = f.service.CreateTruckReceipt(ctx, TruckReceiptRequest{
		WarehouseID:  f.whID,
		DocDate:      time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		LicensePlate: "51C-12345",
	})
	assert.True(t, apperror.IsValidation(err), "no compartments")

	eight := make([]TruckCompartment, 8)
	for i := range eight {
		eight[i] = TruckCompartment{CompartmentNumber: i + 1, ProductID: f.productID, TruckVolume: 1000, ActualVolume: 1000, ReceivedVolume: 1000}
	}
	_, err = f.service.CreateTruckReceipt(ctx, TruckReceiptRequest{
		WarehouseID:  f.whID,
		DocDate:      time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		LicensePlate: "51C-12345",
		Compartments: eight,
	})
	assert.True(t, apperror.IsValidation(err), "too many compartments")
}

func TestListByType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 500)
	tid := f.tankID

	_, err := f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID, DocType: TypeImport,
		DocDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Items:   []CreateItem{{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(100)}},
	})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, CreateRequest{
		WarehouseID: f.whID, DocType: TypeExport,
		DocDate: time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
		Items:   []CreateItem{{ProductID: f.productID, TankID: &tid, Quantity: types.NewQuantity(50)}},
	})
	require.NoError(t, err)

	all, err := f.service.List(ctx, f.whID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	imports := TypeImport
	onlyImports, err := f.service.List(ctx, f.whID, &imports)
	require.NoError(t, err)
	require.Len(t, onlyImports, 1)
	assert.Equal(t, TypeImport, onlyImports[0].DocType)
}
