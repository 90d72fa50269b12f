package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func rawEntry(whID, productID, tankID, shiftID id.ID, in, out float64) *ledger.Entry {
	tid := tankID
	sid := shiftID
	refType := ledger.RefImport
	if out > 0 {
		refType = ledger.RefExport
	}
	return &ledger.Entry{
		ID:          id.New(),
		WarehouseID: whID,
		ProductID:   productID,
		TankID:      &tid,
		ShiftID:     &sid,
		RefType:     refType,
		RefID:       id.New(),
		QuantityIn:  types.NewQuantity(in),
		QuantityOut: types.NewQuantity(out),
		CreatedAt:   time.Now().UTC(),
	}
}

func TestCloseShiftSupersedesRawEntries(t *testing.T) {
	ctx := context.Background()
	whID := id.New()
	diesel := id.New()
	tankID := id.New()

	sh := Shift{ID: id.New(), StoreID: id.New(), ShiftNo: 1,
		ShiftDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Status: StatusOpen}
	shiftRepo := &memShifts{shifts: []Shift{sh}}

	entries := &memEntries{}
	require.NoError(t, entries.CreateBatch(ctx, []*ledger.Entry{
		rawEntry(whID, diesel, tankID, sh.ID, 0, 100),
		rawEntry(whID, diesel, tankID, sh.ID, 0, 50),
		rawEntry(whID, diesel, tankID, sh.ID, 30, 0),
	}))

	closed, err := NewCloser(shiftRepo, entries, fakeTx{}).Close(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)

	stored, err := shiftRepo.GetByID(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, stored.Status)

	// three raw rows folded into one inbound and one outbound summary
	live, err := entries.ListByShift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, live, 2)
	totalIn := types.ZeroQuantity()
	totalOut := types.ZeroQuantity()
	for _, e := range live {
		assert.Equal(t, ledger.RefShiftSale, e.RefType)
		assert.Equal(t, sh.ID, e.RefID)
		require.NotNil(t, e.TankID)
		assert.Equal(t, tankID, *e.TankID)
		totalIn = totalIn.Add(e.QuantityIn)
		totalOut = totalOut.Add(e.QuantityOut)
	}
	assert.True(t, totalIn.Equal(types.NewQuantity(30)), "in %s", totalIn)
	assert.True(t, totalOut.Equal(types.NewQuantity(150)), "out %s", totalOut)

	superseded := 0
	for _, e := range entries.entries {
		if e.SupersededByShiftID != nil {
			assert.Equal(t, sh.ID, *e.SupersededByShiftID)
			superseded++
		}
	}
	assert.Equal(t, 3, superseded)
}

func TestCloseShiftGroupsByTankAndProduct(t *testing.T) {
	ctx := context.Background()
	whID := id.New()
	diesel := id.New()
	gasoline := id.New()
	tankA := id.New()
	tankB := id.New()

	sh := Shift{ID: id.New(), StoreID: id.New(), ShiftNo: 2,
		ShiftDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Status: StatusOpen}
	shiftRepo := &memShifts{shifts: []Shift{sh}}

	entries := &memEntries{}
	require.NoError(t, entries.CreateBatch(ctx, []*ledger.Entry{
		rawEntry(whID, diesel, tankA, sh.ID, 0, 40),
		rawEntry(whID, diesel, tankA, sh.ID, 0, 60),
		rawEntry(whID, gasoline, tankB, sh.ID, 0, 25),
	}))

	_, err := NewCloser(shiftRepo, entries, fakeTx{}).Close(ctx, sh.ID)
	require.NoError(t, err)

	live, err := entries.ListByShift(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, live, 2, "one summary per tank and product")
	for _, e := range live {
		switch *e.TankID {
		case tankA:
			assert.Equal(t, diesel, e.ProductID)
			assert.True(t, e.QuantityOut.Equal(types.NewQuantity(100)))
		case tankB:
			assert.Equal(t, gasoline, e.ProductID)
			assert.True(t, e.QuantityOut.Equal(types.NewQuantity(25)))
		default:
			t.Fatalf("unexpected tank %s", e.TankID)
		}
	}
}

func TestCloseShiftAlreadyClosed(t *testing.T) {
	ctx := context.Background()
	sh := Shift{ID: id.New(), StoreID: id.New(), ShiftNo: 1,
		ShiftDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Status: StatusClosed}
	shiftRepo := &memShifts{shifts: []Shift{sh}}

	_, err := NewCloser(shiftRepo, &memEntries{}, fakeTx{}).Close(ctx, sh.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestCloseShiftWithoutEntries(t *testing.T) {
	ctx := context.Background()
	sh := Shift{ID: id.New(), StoreID: id.New(), ShiftNo: 1,
		ShiftDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Status: StatusOpen}
	shiftRepo := &memShifts{shifts: []Shift{sh}}
	entries := &memEntries{}

	closed, err := NewCloser(shiftRepo, entries, fakeTx{}).Close(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.Empty(t, entries.entries)
}

func TestCloseShiftUnknown(t *testing.T) {
	ctx := context.Background()
	_, err := NewCloser(&memShifts{}, &memEntries{}, fakeTx{}).Close(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}
