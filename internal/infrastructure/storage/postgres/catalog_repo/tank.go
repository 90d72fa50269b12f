package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/tank"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const tanksTable = "tanks"

var tankColumns = []string{
	"id", "store_id", "product_id", "tank_code", "name",
	"capacity", "current_stock", "is_active", "created_at", "updated_at",
}

// TankRepo implements tank.Repository.
type TankRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTankRepo creates a new tank repository.
func NewTankRepo(txManager *postgres.TxManager) *TankRepo {
	return &TankRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a tank.
func (r *TankRepo) Create(ctx context.Context, t *tank.Tank) error {
	q := r.builder.Insert(tanksTable).
		Columns(tankColumns...).
		Values(t.ID, t.StoreID, t.ProductID, t.TankCode, t.Name,
			t.Capacity, t.CurrentStock, t.IsActive, t.CreatedAt, t.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert tank: %w", err)
	}
	return nil
}

// GetByID fetches a tank by id.
func (r *TankRepo) GetByID(ctx context.Context, tankID id.ID) (*tank.Tank, error) {
	q := r.builder.Select(tankColumns...).From(tanksTable).
		Where(squirrel.Eq{"id": tankID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t tank.Tank
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("tank", tankID)
		}
		return nil, fmt.Errorf("get tank: %w", err)
	}
	return &t, nil
}

// ListByStore returns a store's tanks ordered by tank code.
func (r *TankRepo) ListByStore(ctx context.Context, storeID id.ID, activeOnly bool) ([]tank.Tank, error) {
	q := r.builder.Select(tankColumns...).From(tanksTable).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("tank_code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return r.selectTanks(ctx, q)
}

// List returns all tanks ordered by store then tank code.
func (r *TankRepo) List(ctx context.Context, activeOnly bool) ([]tank.Tank, error) {
	q := r.builder.Select(tankColumns...).From(tanksTable).
		OrderBy("store_id", "tank_code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return r.selectTanks(ctx, q)
}

func (r *TankRepo) selectTanks(ctx context.Context, q squirrel.SelectBuilder) ([]tank.Tank, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tanks []tank.Tank
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &tanks, sql, args...); err != nil {
		return nil, fmt.Errorf("select tanks: %w", err)
	}
	return tanks, nil
}

// UpdateBaseline replaces the baseline stock of a tank.
func (r *TankRepo) UpdateBaseline(ctx context.Context, tankID id.ID, baseline types.Quantity) error {
	q := r.builder.Update(tanksTable).
		Set("current_stock", baseline).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": tankID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update baseline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("tank", tankID)
	}
	return nil
}

// SumBaselines totals the baselines of a store's tanks for a product.
func (r *TankRepo) SumBaselines(ctx context.Context, storeID, productID id.ID) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(current_stock), 0) AS total").
		From(tanksTable).
		Where(squirrel.Eq{"store_id": storeID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.ZeroQuantity(), fmt.Errorf("build query: %w", err)
	}

	var total types.Quantity
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &total, sql, args...); err != nil {
		return types.ZeroQuantity(), fmt.Errorf("sum baselines: %w", err)
	}
	return total, nil
}
