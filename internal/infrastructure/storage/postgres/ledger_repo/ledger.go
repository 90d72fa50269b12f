// Package ledger_repo provides the PostgreSQL implementation of the
// inventory ledger repository.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/ledger"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const ledgerTable = "inventory_ledger"

var ledgerColumns = []string{
	"id", "warehouse_id", "product_id", "tank_id", "shift_id",
	"ref_type", "ref_id", "quantity_in", "quantity_out",
	"notes", "superseded_by_shift_id", "created_at", "created_by",
}

// notSuperseded excludes entries replaced by a shift summary. Every
// balance query carries it.
var notSuperseded = squirrel.Eq{"superseded_by_shift_id": nil}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch appends entries. Inside a transaction the COPY protocol
// is used; otherwise a multi-row insert.
func (r *LedgerRepo) CreateBatch(ctx context.Context, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.ID, e.WarehouseID, e.ProductID, e.TankID, e.ShiftID,
				e.RefType, e.RefID, e.QuantityIn, e.QuantityOut,
				e.Notes, e.SupersededByShiftID, e.CreatedAt, e.CreatedBy,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(
			e.ID, e.WarehouseID, e.ProductID, e.TankID, e.ShiftID,
			e.RefType, e.RefID, e.QuantityIn, e.QuantityOut,
			e.Notes, e.SupersededByShiftID, e.CreatedAt, e.CreatedBy,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}
	return nil
}

// sumRow scans aggregated totals.
type sumRow struct {
	TotalIn  types.Quantity `db:"total_in"`
	TotalOut types.Quantity `db:"total_out"`
}

func (s sumRow) sums() ledger.Sums {
	return ledger.Sums{In: s.TotalIn, Out: s.TotalOut}
}

func sumSelect(b squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return b.Select(
		"COALESCE(SUM(quantity_in), 0) AS total_in",
		"COALESCE(SUM(quantity_out), 0) AS total_out",
	).From(ledgerTable).Where(notSuperseded)
}

func (r *LedgerRepo) getSums(ctx context.Context, q squirrel.SelectBuilder) (ledger.Sums, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.Sums{}, fmt.Errorf("build query: %w", err)
	}
	var row sumRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		return ledger.Sums{}, fmt.Errorf("sum ledger: %w", err)
	}
	return row.sums(), nil
}

func (r *LedgerRepo) sumForTankQuery(tankID id.ID, until *time.Time) squirrel.SelectBuilder {
	q := sumSelect(r.builder).Where(squirrel.Eq{"tank_id": tankID})
	if until != nil {
		q = q.Where(squirrel.Lt{"created_at": *until})
	}
	return q
}

func (r *LedgerRepo) sumForTankInPeriodQuery(tankID id.ID, from, toExclusive time.Time) squirrel.SelectBuilder {
	return sumSelect(r.builder).
		Where(squirrel.Eq{"tank_id": tankID}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": toExclusive})
}

// SumForTank totals entries of a tank strictly before until.
func (r *LedgerRepo) SumForTank(ctx context.Context, tankID id.ID, until *time.Time) (ledger.Sums, error) {
	return r.getSums(ctx, r.sumForTankQuery(tankID, until))
}

// SumForTankInPeriod totals entries of a tank in [from, toExclusive).
func (r *LedgerRepo) SumForTankInPeriod(ctx context.Context, tankID id.ID, from, toExclusive time.Time) (ledger.Sums, error) {
	return r.getSums(ctx, r.sumForTankInPeriodQuery(tankID, from, toExclusive))
}

// SumForTanks totals entries grouped by tank.
func (r *LedgerRepo) SumForTanks(ctx context.Context, tankIDs []id.ID, until *time.Time) ([]ledger.TankSums, error) {
	q := r.builder.Select(
		"tank_id",
		"COALESCE(SUM(quantity_in), 0) AS total_in",
		"COALESCE(SUM(quantity_out), 0) AS total_out",
	).From(ledgerTable).
		Where(notSuperseded).
		Where(squirrel.Eq{"tank_id": tankIDs}).
		GroupBy("tank_id")
	if until != nil {
		q = q.Where(squirrel.Lt{"created_at": *until})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		TankID   id.ID          `db:"tank_id"`
		TotalIn  types.Quantity `db:"total_in"`
		TotalOut types.Quantity `db:"total_out"`
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum by tank: %w", err)
	}

	sums := make([]ledger.TankSums, 0, len(rows))
	for _, row := range rows {
		sums = append(sums, ledger.TankSums{
			TankID: row.TankID,
			Sums:   ledger.Sums{In: row.TotalIn, Out: row.TotalOut},
		})
	}
	return sums, nil
}

// SumForWarehouseProduct totals entries of a product in a warehouse.
func (r *LedgerRepo) SumForWarehouseProduct(ctx context.Context, warehouseID, productID id.ID, until *time.Time) (ledger.Sums, error) {
	q := sumSelect(r.builder).
		Where(squirrel.Eq{"warehouse_id": warehouseID, "product_id": productID})
	if until != nil {
		q = q.Where(squirrel.Lt{"created_at": *until})
	}
	return r.getSums(ctx, q)
}

// SumForShift totals a product's entries booked against one shift.
func (r *LedgerRepo) SumForShift(ctx context.Context, warehouseID, productID, shiftID id.ID) (ledger.Sums, error) {
	q := sumSelect(r.builder).Where(squirrel.Eq{
		"warehouse_id": warehouseID,
		"product_id":   productID,
		"shift_id":     shiftID,
	})
	return r.getSums(ctx, q)
}

// SumByWarehouse totals entries of a warehouse grouped by product.
func (r *LedgerRepo) SumByWarehouse(ctx context.Context, warehouseID id.ID, until *time.Time) ([]ledger.ProductSums, error) {
	q := r.builder.Select(
		"product_id",
		"COALESCE(SUM(quantity_in), 0) AS total_in",
		"COALESCE(SUM(quantity_out), 0) AS total_out",
	).From(ledgerTable).
		Where(notSuperseded).
		Where(squirrel.Eq{"warehouse_id": warehouseID}).
		GroupBy("product_id").
		OrderBy("product_id")
	if until != nil {
		q = q.Where(squirrel.Lt{"created_at": *until})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		ProductID id.ID          `db:"product_id"`
		TotalIn   types.Quantity `db:"total_in"`
		TotalOut  types.Quantity `db:"total_out"`
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum by warehouse: %w", err)
	}

	sums := make([]ledger.ProductSums, 0, len(rows))
	for _, row := range rows {
		sums = append(sums, ledger.ProductSums{
			ProductID: row.ProductID,
			Sums:      ledger.Sums{In: row.TotalIn, Out: row.TotalOut},
		})
	}
	return sums, nil
}

// ListByRef returns entries written for one business document.
func (r *LedgerRepo) ListByRef(ctx context.Context, refType ledger.RefType, refID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).From(ledgerTable).
		Where(squirrel.Eq{"ref_type": refType, "ref_id": refID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select by ref: %w", err)
	}
	return entries, nil
}

// ListByShift returns live entries booked against one shift.
func (r *LedgerRepo) ListByShift(ctx context.Context, shiftID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(ledgerColumns...).From(ledgerTable).
		Where(squirrel.Eq{"shift_id": shiftID}).
		Where(notSuperseded).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select by shift: %w", err)
	}
	return entries, nil
}

// DeleteByRef removes entries of a reversed document.
func (r *LedgerRepo) DeleteByRef(ctx context.Context, refType ledger.RefType, refID id.ID) (int64, error) {
	q := r.builder.Delete(ledgerTable).
		Where(squirrel.Eq{"ref_type": refType, "ref_id": refID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete by ref: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *LedgerRepo) markSupersededQuery(entryIDs []id.ID, shiftID id.ID) squirrel.UpdateBuilder {
	return r.builder.Update(ledgerTable).
		Set("superseded_by_shift_id", shiftID).
		Where(squirrel.Eq{"id": entryIDs}).
		Where(notSuperseded)
}

// MarkSuperseded stamps raw entries with the shift that replaced them.
func (r *LedgerRepo) MarkSuperseded(ctx context.Context, entryIDs []id.ID, shiftID id.ID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	sql, args, err := r.markSupersededQuery(entryIDs, shiftID).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark superseded: %w", err)
	}
	return nil
}
