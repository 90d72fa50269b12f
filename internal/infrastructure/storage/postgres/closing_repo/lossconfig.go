package closing_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/closing"
	"fueldepot/internal/infrastructure/storage/postgres"
)

const lossConfigsTable = "store_loss_configs"

var lossConfigColumns = []string{
	"id", "store_id", "product_category", "loss_rate",
	"effective_from", "effective_to", "notes",
	"created_by", "created_at", "updated_at",
}

// LossConfigRepo implements closing.LossConfigRepository.
type LossConfigRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLossConfigRepo creates a new loss-config repository.
func NewLossConfigRepo(txManager *postgres.TxManager) *LossConfigRepo {
	return &LossConfigRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a config.
func (r *LossConfigRepo) Create(ctx context.Context, c *closing.LossRateConfig) error {
	q := r.builder.Insert(lossConfigsTable).
		Columns(lossConfigColumns...).
		Values(c.ID, c.StoreID, c.ProductCategory, c.LossRate,
			c.EffectiveFrom, c.EffectiveTo, c.Notes,
			c.CreatedBy, c.CreatedAt, c.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert loss config: %w", err)
	}
	return nil
}

// GetByID fetches a config by id.
func (r *LossConfigRepo) GetByID(ctx context.Context, configID id.ID) (*closing.LossRateConfig, error) {
	q := r.builder.Select(lossConfigColumns...).From(lossConfigsTable).
		Where(squirrel.Eq{"id": configID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c closing.LossRateConfig
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("loss config", configID)
		}
		return nil, fmt.Errorf("get loss config: %w", err)
	}
	return &c, nil
}

// Update rewrites a config.
func (r *LossConfigRepo) Update(ctx context.Context, c *closing.LossRateConfig) error {
	q := r.builder.Update(lossConfigsTable).
		Set("product_category", c.ProductCategory).
		Set("loss_rate", c.LossRate).
		Set("effective_from", c.EffectiveFrom).
		Set("effective_to", c.EffectiveTo).
		Set("notes", c.Notes).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": c.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update loss config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("loss config", c.ID)
	}
	return nil
}

// Delete removes a config.
func (r *LossConfigRepo) Delete(ctx context.Context, configID id.ID) error {
	q := r.builder.Delete(lossConfigsTable).Where(squirrel.Eq{"id": configID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete loss config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("loss config", configID)
	}
	return nil
}

// ListByStore returns a store's configs, newest first per category.
func (r *LossConfigRepo) ListByStore(ctx context.Context, storeID id.ID) ([]closing.LossRateConfig, error) {
	q := r.builder.Select(lossConfigColumns...).From(lossConfigsTable).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("product_category", "effective_from DESC")
	return r.selectConfigs(ctx, q)
}

// ListAll returns every config.
func (r *LossConfigRepo) ListAll(ctx context.Context) ([]closing.LossRateConfig, error) {
	q := r.builder.Select(lossConfigColumns...).From(lossConfigsTable).
		OrderBy("store_id", "product_category", "effective_from DESC")
	return r.selectConfigs(ctx, q)
}

func (r *LossConfigRepo) selectConfigs(ctx context.Context, q squirrel.SelectBuilder) ([]closing.LossRateConfig, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var configs []closing.LossRateConfig
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &configs, sql, args...); err != nil {
		return nil, fmt.Errorf("select loss configs: %w", err)
	}
	return configs, nil
}

// FindEffective returns the config effective on the given day.
func (r *LossConfigRepo) FindEffective(ctx context.Context, storeID id.ID, category product.Category, day time.Time) (*closing.LossRateConfig, error) {
	q := r.builder.Select(lossConfigColumns...).From(lossConfigsTable).
		Where(squirrel.Eq{"store_id": storeID, "product_category": category}).
		Where(squirrel.LtOrEq{"effective_from": day}).
		Where(squirrel.Or{
			squirrel.Eq{"effective_to": nil},
			squirrel.GtOrEq{"effective_to": day},
		}).
		OrderBy("effective_from DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c closing.LossRateConfig
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("loss config", day.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("find effective config: %w", err)
	}
	return &c, nil
}

// ExistsFor reports whether a config with this start day exists.
func (r *LossConfigRepo) ExistsFor(ctx context.Context, storeID id.ID, category product.Category, effectiveFrom time.Time) (bool, error) {
	q := r.builder.Select("1").From(lossConfigsTable).
		Where(squirrel.Eq{
			"store_id":         storeID,
			"product_category": category,
			"effective_from":   effectiveFrom,
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
		return false, fmt.Errorf("check config: %w", err)
	}
	return true, nil
}

// CloseOpenEnded sets effective-to on open-ended configs that started
// before the given day.
func (r *LossConfigRepo) CloseOpenEnded(ctx context.Context, storeID id.ID, category product.Category, startedBefore, effectiveTo time.Time) (int64, error) {
	q := r.builder.Update(lossConfigsTable).
		Set("effective_to", effectiveTo).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{
			"store_id":         storeID,
			"product_category": category,
			"effective_to":     nil,
		}).
		Where(squirrel.Lt{"effective_from": startedBefore})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("close old configs: %w", err)
	}
	return tag.RowsAffected(), nil
}
