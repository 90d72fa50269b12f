// Package closing_repo provides PostgreSQL implementations for the
// period-closing repositories.
package closing_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const closingsTable = "inventory_closings"

var closingColumns = []string{
	"id", "store_id", "tank_id", "period_from", "period_to", "closing_date",
	"opening_balance", "import_quantity", "export_quantity",
	"loss_rate", "loss_amount", "closing_balance",
	"loss_config_id", "product_category", "notes", "created_by", "created_at",
}

// ClosingRepo implements closing.Repository.
type ClosingRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewClosingRepo creates a new closing repository.
func NewClosingRepo(txManager *postgres.TxManager) *ClosingRepo {
	return &ClosingRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateBatch writes all snapshots of one closing run. Uses COPY when
// inside a transaction, which closing runs always are.
func (r *ClosingRepo) CreateBatch(ctx context.Context, snapshots []*closing.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(snapshots))
		for _, s := range snapshots {
			rows = append(rows, []any{
				s.ID, s.StoreID, s.TankID, s.PeriodFrom, s.PeriodTo, s.ClosingDate,
				s.OpeningBalance, s.ImportQuantity, s.ExportQuantity,
				s.LossRate, s.LossAmount, s.ClosingBalance,
				s.LossConfigID, s.ProductCategory, s.Notes, s.CreatedBy, s.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, closingsTable, closingColumns, rows); err != nil {
			return fmt.Errorf("copy snapshots: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(closingsTable).Columns(closingColumns...)
	for _, s := range snapshots {
		q = q.Values(
			s.ID, s.StoreID, s.TankID, s.PeriodFrom, s.PeriodTo, s.ClosingDate,
			s.OpeningBalance, s.ImportQuantity, s.ExportQuantity,
			s.LossRate, s.LossAmount, s.ClosingBalance,
			s.LossConfigID, s.ProductCategory, s.Notes, s.CreatedBy, s.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	return nil
}

// FindLatestBefore returns the newest snapshot of a tank ending
// strictly before the given day.
func (r *ClosingRepo) FindLatestBefore(ctx context.Context, tankID id.ID, day time.Time) (*closing.Snapshot, error) {
	q := r.builder.Select(closingColumns...).From(closingsTable).
		Where(squirrel.Eq{"tank_id": tankID}).
		Where(squirrel.Lt{"period_to": day}).
		OrderBy("period_to DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s closing.Snapshot
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("closing snapshot", tankID)
		}
		return nil, fmt.Errorf("get latest closing: %w", err)
	}
	return &s, nil
}

// ExistsForPeriod reports whether the store already closed this period.
func (r *ClosingRepo) ExistsForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (bool, error) {
	q := r.builder.Select("1").From(closingsTable).
		Where(squirrel.Eq{
			"store_id":    storeID,
			"period_from": periodFrom,
			"period_to":   periodTo,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check period: %w", err)
	}
	return true, nil
}

// ListByStore returns snapshots of a store ordered by period start then
// tank id, optionally clipped to periods intersecting [fromDate, toDate].
func (r *ClosingRepo) ListByStore(ctx context.Context, storeID id.ID, fromDate, toDate *time.Time) ([]closing.Snapshot, error) {
	q := r.builder.Select(closingColumns...).From(closingsTable).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("period_from", "tank_id")
	if fromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period_to": *fromDate})
	}
	if toDate != nil {
		q = q.Where(squirrel.LtOrEq{"period_from": *toDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snapshots []closing.Snapshot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &snapshots, sql, args...); err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	return snapshots, nil
}

// ListPeriods returns the distinct closed periods of a store, newest
// first.
func (r *ClosingRepo) ListPeriods(ctx context.Context, storeID id.ID) ([]closing.Period, error) {
	q := r.builder.Select(
		"period_from",
		"period_to",
		"MAX(closing_date) AS closing_date",
	).From(closingsTable).
		Where(squirrel.Eq{"store_id": storeID}).
		GroupBy("period_from", "period_to").
		OrderBy("period_from DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var periods []closing.Period
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &periods, sql, args...); err != nil {
		return nil, fmt.Errorf("select periods: %w", err)
	}
	return periods, nil
}

// MaxPeriodTo returns the latest closed period end of a store.
func (r *ClosingRepo) MaxPeriodTo(ctx context.Context, storeID id.ID) (*time.Time, error) {
	q := r.builder.Select("MAX(period_to) AS max_period_to").From(closingsTable).
		Where(squirrel.Eq{"store_id": storeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var maxTo *time.Time
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &maxTo, sql, args...); err != nil {
		return nil, fmt.Errorf("max period: %w", err)
	}
	return maxTo, nil
}

// DeleteForPeriod removes every snapshot of one store period.
func (r *ClosingRepo) DeleteForPeriod(ctx context.Context, storeID id.ID, periodFrom, periodTo time.Time) (int64, error) {
	q := r.builder.Delete(closingsTable).
		Where(squirrel.Eq{
			"store_id":    storeID,
			"period_from": periodFrom,
			"period_to":   periodTo,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
