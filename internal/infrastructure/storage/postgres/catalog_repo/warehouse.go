package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/catalogs/warehouse"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const warehousesTable = "warehouses"

var warehouseColumns = []string{
	"id", "store_id", "code", "name", "type", "is_active", "created_at", "updated_at",
}

// WarehouseRepo implements warehouse.Repository.
type WarehouseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewWarehouseRepo creates a new warehouse repository.
func NewWarehouseRepo(txManager *postgres.TxManager) *WarehouseRepo {
	return &WarehouseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a warehouse.
func (r *WarehouseRepo) Create(ctx context.Context, w *warehouse.Warehouse) error {
	q := r.builder.Insert(warehousesTable).
		Columns(warehouseColumns...).
		Values(w.ID, w.StoreID, w.Code, w.Name, w.Type, w.IsActive, w.CreatedAt, w.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID fetches a warehouse by id.
func (r *WarehouseRepo) GetByID(ctx context.Context, warehouseID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("warehouse", warehouseID)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// GetStoreWarehouse resolves the STORE-type warehouse of a store.
func (r *WarehouseRepo) GetStoreWarehouse(ctx context.Context, storeID id.ID) (*warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).From(warehousesTable).
		Where(squirrel.Eq{"store_id": storeID, "type": warehouse.TypeStore}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w warehouse.Warehouse
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("store warehouse", storeID)
		}
		return nil, fmt.Errorf("get store warehouse: %w", err)
	}
	return &w, nil
}

// List returns warehouses ordered by name.
func (r *WarehouseRepo) List(ctx context.Context, activeOnly bool) ([]warehouse.Warehouse, error) {
	q := r.builder.Select(warehouseColumns...).From(warehousesTable).OrderBy("name")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var warehouses []warehouse.Warehouse
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &warehouses, sql, args...); err != nil {
		return nil, fmt.Errorf("select warehouses: %w", err)
	}
	return warehouses, nil
}
