package closing

import (
	"context"
	"time"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/pkg/logger"
)

// LossRateConfig is an effective-dated evaporation loss rate for one
// store and product category. At most one config is effective for a
// given (store, category, day); creation auto-closes older open-ended
// windows.
type LossRateConfig struct {
	ID              id.ID            `db:"id" json:"id"`
	StoreID         id.ID            `db:"store_id" json:"storeId"`
	ProductCategory product.Category `db:"product_category" json:"productCategory"`
	LossRate        types.Rate       `db:"loss_rate" json:"lossRate"`
	EffectiveFrom   time.Time        `db:"effective_from" json:"effectiveFrom"`
	EffectiveTo     *time.Time       `db:"effective_to" json:"effectiveTo,omitempty"`
	Notes           string           `db:"notes" json:"notes,omitempty"`
	CreatedBy       *id.ID           `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`
}

// Validate checks config invariants.
func (c *LossRateConfig) Validate(ctx context.Context) error {
	if id.IsNil(c.StoreID) {
		return apperror.NewValidation("loss config requires a store").WithDetail("field", "storeId")
	}
	switch c.ProductCategory {
	case product.CategoryGasoline, product.CategoryDiesel, product.CategoryKerosene:
	default:
		return apperror.NewValidation("unknown product category").
			WithDetail("productCategory", string(c.ProductCategory))
	}
	if c.LossRate.IsNegative() {
		return apperror.NewValidation("loss rate cannot be negative").
			WithDetail("lossRate", c.LossRate.String())
	}
	if c.EffectiveFrom.IsZero() {
		return apperror.NewValidation("effective-from date is required").
			WithDetail("field", "effectiveFrom")
	}
	if c.EffectiveTo != nil && c.EffectiveTo.Before(c.EffectiveFrom) {
		return apperror.NewValidation("effective-to cannot precede effective-from").
			WithDetail("effectiveFrom", c.EffectiveFrom.Format(time.DateOnly)).
			WithDetail("effectiveTo", c.EffectiveTo.Format(time.DateOnly))
	}
	return nil
}

// LossConfigRepository defines persistence operations for loss-rate
// configs.
type LossConfigRepository interface {
	Create(ctx context.Context, c *LossRateConfig) error
	GetByID(ctx context.Context, configID id.ID) (*LossRateConfig, error)
	Update(ctx context.Context, c *LossRateConfig) error
	Delete(ctx context.Context, configID id.ID) error
	ListByStore(ctx context.Context, storeID id.ID) ([]LossRateConfig, error)
	ListAll(ctx context.Context) ([]LossRateConfig, error)
	// FindEffective returns the config effective on the given day,
	// preferring the most recent effective-from. Not-found error when
	// no window covers the day.
	FindEffective(ctx context.Context, storeID id.ID, category product.Category, day time.Time) (*LossRateConfig, error)
	// ExistsFor reports whether a config with this exact start day
	// already exists for the store and category.
	ExistsFor(ctx context.Context, storeID id.ID, category product.Category, effectiveFrom time.Time) (bool, error)
	// CloseOpenEnded sets effective-to on open-ended configs of the
	// store and category that started before the given day.
	CloseOpenEnded(ctx context.Context, storeID id.ID, category product.Category, startedBefore, effectiveTo time.Time) (int64, error)
}

// LossConfigService manages effective-dated loss rates.
type LossConfigService struct {
	configs LossConfigRepository
}

// NewLossConfigService constructs a loss-config service.
func NewLossConfigService(configs LossConfigRepository) *LossConfigService {
	return &LossConfigService{configs: configs}
}

// Create validates and stores a new config. Older open-ended windows of
// the same store and category are closed at the day before the new
// window starts, so windows never overlap.
func (s *LossConfigService) Create(ctx context.Context, c *LossRateConfig) error {
	c.EffectiveFrom = Day(c.EffectiveFrom)
	if c.EffectiveTo != nil {
		d := Day(*c.EffectiveTo)
		c.EffectiveTo = &d
	}
	if err := c.Validate(ctx); err != nil {
		return err
	}
	exists, err := s.configs.ExistsFor(ctx, c.StoreID, c.ProductCategory, c.EffectiveFrom)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("loss config", "effectiveFrom", c.EffectiveFrom.Format(time.DateOnly)).
			WithDetail("storeId", c.StoreID.String()).
			WithDetail("productCategory", string(c.ProductCategory))
	}
	dayBefore := c.EffectiveFrom.AddDate(0, 0, -1)
	closed, err := s.configs.CloseOpenEnded(ctx, c.StoreID, c.ProductCategory, c.EffectiveFrom, dayBefore)
	if err != nil {
		return err
	}
	if closed > 0 {
		logger.Info(ctx, "closed superseded loss configs",
			"store_id", c.StoreID, "product_category", c.ProductCategory, "count", closed)
	}
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	return s.configs.Create(ctx, c)
}

// Update applies partial changes to an existing config.
func (s *LossConfigService) Update(ctx context.Context, c *LossRateConfig) error {
	if _, err := s.configs.GetByID(ctx, c.ID); err != nil {
		return err
	}
	c.EffectiveFrom = Day(c.EffectiveFrom)
	if c.EffectiveTo != nil {
		d := Day(*c.EffectiveTo)
		c.EffectiveTo = &d
	}
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.configs.Update(ctx, c)
}

// Delete removes a config.
func (s *LossConfigService) Delete(ctx context.Context, configID id.ID) error {
	if _, err := s.configs.GetByID(ctx, configID); err != nil {
		return err
	}
	return s.configs.Delete(ctx, configID)
}

// GetByID returns one config.
func (s *LossConfigService) GetByID(ctx context.Context, configID id.ID) (*LossRateConfig, error) {
	return s.configs.GetByID(ctx, configID)
}

// ListByStore returns all configs of a store, newest first per category.
func (s *LossConfigService) ListByStore(ctx context.Context, storeID id.ID) ([]LossRateConfig, error) {
	return s.configs.ListByStore(ctx, storeID)
}

// ListAll returns every config.
func (s *LossConfigService) ListAll(ctx context.Context) ([]LossRateConfig, error) {
	return s.configs.ListAll(ctx)
}

// EffectiveRate resolves the rate in force for a store and category on
// a given day. A missing config is not an error: the rate is zero.
func (s *LossConfigService) EffectiveRate(ctx context.Context, storeID id.ID, category product.Category, day time.Time) (types.Rate, *id.ID, error) {
	cfg, err := s.configs.FindEffective(ctx, storeID, category, Day(day))
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.ZeroQuantity(), nil, nil
		}
		return types.ZeroQuantity(), nil, err
	}
	cfgID := cfg.ID
	return cfg.LossRate, &cfgID, nil
}
