// Package catalog_repo provides PostgreSQL implementations for the
// catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/catalogs/store"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const storesTable = "stores"

var storeColumns = []string{
	"id", "code", "name", "address", "is_active", "created_at", "updated_at",
}

// StoreRepo implements store.Repository.
type StoreRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStoreRepo creates a new store repository.
func NewStoreRepo(txManager *postgres.TxManager) *StoreRepo {
	return &StoreRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a store.
func (r *StoreRepo) Create(ctx context.Context, s *store.Store) error {
	q := r.builder.Insert(storesTable).
		Columns(storeColumns...).
		Values(s.ID, s.Code, s.Name, s.Address, s.IsActive, s.CreatedAt, s.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

// GetByID fetches a store by id.
func (r *StoreRepo) GetByID(ctx context.Context, storeID id.ID) (*store.Store, error) {
	return r.getOne(ctx, squirrel.Eq{"id": storeID}, storeID)
}

// GetByCode fetches a store by code.
func (r *StoreRepo) GetByCode(ctx context.Context, code string) (*store.Store, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *StoreRepo) getOne(ctx context.Context, pred any, key any) (*store.Store, error) {
	q := r.builder.Select(storeColumns...).From(storesTable).Where(pred).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s store.Store
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("store", key)
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// List returns stores ordered by code.
func (r *StoreRepo) List(ctx context.Context, activeOnly bool) ([]store.Store, error) {
	q := r.builder.Select(storeColumns...).From(storesTable).OrderBy("code")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var stores []store.Store
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &stores, sql, args...); err != nil {
		return nil, fmt.Errorf("select stores: %w", err)
	}
	return stores, nil
}
