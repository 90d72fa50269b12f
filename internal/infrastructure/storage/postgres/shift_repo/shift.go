// Package shift_repo provides the PostgreSQL implementation of the
// shift repository.
package shift_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/shifts"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const shiftsTable = "shifts"

var shiftColumns = []string{
	"id", "store_id", "shift_no", "shift_date", "status",
	"opening_stock_json", "created_at", "updated_at",
}

// ShiftRepo implements shifts.Repository.
type ShiftRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewShiftRepo creates a new shift repository.
func NewShiftRepo(txManager *postgres.TxManager) *ShiftRepo {
	return &ShiftRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// shiftRow carries the raw JSONB column alongside the scalar fields.
type shiftRow struct {
	ID               id.ID           `db:"id"`
	StoreID          id.ID           `db:"store_id"`
	ShiftNo          int             `db:"shift_no"`
	ShiftDate        time.Time       `db:"shift_date"`
	Status           shifts.Status   `db:"status"`
	OpeningStockJSON json.RawMessage `db:"opening_stock_json"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (row *shiftRow) toShift() (shifts.Shift, error) {
	s := shifts.Shift{
		ID:        row.ID,
		StoreID:   row.StoreID,
		ShiftNo:   row.ShiftNo,
		ShiftDate: row.ShiftDate,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.OpeningStockJSON) > 0 {
		if err := json.Unmarshal(row.OpeningStockJSON, &s.OpeningStock); err != nil {
			return s, fmt.Errorf("decode opening stock: %w", err)
		}
	}
	return s, nil
}

// GetByID fetches a shift by id.
func (r *ShiftRepo) GetByID(ctx context.Context, shiftID id.ID) (*shifts.Shift, error) {
	q := r.builder.Select(shiftColumns...).From(shiftsTable).
		Where(squirrel.Eq{"id": shiftID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row shiftRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("shift", shiftID)
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	s, err := row.toShift()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByStore returns a store's shifts in chain order.
func (r *ShiftRepo) ListByStore(ctx context.Context, storeID id.ID) ([]shifts.Shift, error) {
	q := r.builder.Select(shiftColumns...).From(shiftsTable).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("shift_date", "shift_no")
	return r.selectShifts(ctx, q)
}

// ListOrdered returns every shift ordered by store, date and shift
// number.
func (r *ShiftRepo) ListOrdered(ctx context.Context) ([]shifts.Shift, error) {
	q := r.builder.Select(shiftColumns...).From(shiftsTable).
		OrderBy("store_id", "shift_date", "shift_no")
	return r.selectShifts(ctx, q)
}

func (r *ShiftRepo) selectShifts(ctx context.Context, q squirrel.SelectBuilder) ([]shifts.Shift, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []shiftRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select shifts: %w", err)
	}

	result := make([]shifts.Shift, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toShift()
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

// UpdateOpeningStock replaces a shift's opening-stock document.
func (r *ShiftRepo) UpdateOpeningStock(ctx context.Context, shiftID id.ID, items []shifts.OpeningStockItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode opening stock: %w", err)
	}

	q := r.builder.Update(shiftsTable).
		Set("opening_stock_json", payload).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": shiftID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update opening stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("shift", shiftID)
	}
	return nil
}

// MarkClosed sets the shift status to CLOSED.
func (r *ShiftRepo) MarkClosed(ctx context.Context, shiftID id.ID) error {
	q := r.builder.Update(shiftsTable).
		Set("status", shifts.StatusClosed).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": shiftID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("close shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("shift", shiftID)
	}
	return nil
}
