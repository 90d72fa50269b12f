package dto

import (
	"time"

	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
	"fueldepot/internal/domain/closing"
)

// ClosingRequest asks to preview or execute a period closing. Dates
// travel as yyyy-mm-dd.
type ClosingRequest struct {
	StoreID    id.ID  `json:"storeId" binding:"required"`
	PeriodFrom string `json:"periodFrom" binding:"required"`
	PeriodTo   string `json:"periodTo" binding:"required"`
	Notes      string `json:"notes"`
}

// ToRequest converts to the engine request.
func (r *ClosingRequest) ToRequest() (closing.Request, error) {
	from, err := ParseDate("periodFrom", r.PeriodFrom)
	if err != nil {
		return closing.Request{}, err
	}
	to, err := ParseDate("periodTo", r.PeriodTo)
	if err != nil {
		return closing.Request{}, err
	}
	return closing.Request{
		StoreID:    r.StoreID,
		PeriodFrom: from,
		PeriodTo:   to,
		Notes:      r.Notes,
	}, nil
}

// LossConfigRequest creates or updates a loss rate configuration.
type LossConfigRequest struct {
	StoreID         id.ID            `json:"storeId" binding:"required"`
	ProductCategory product.Category `json:"productCategory" binding:"required"`
	LossRate        types.Rate       `json:"lossRate"`
	EffectiveFrom   string           `json:"effectiveFrom" binding:"required"`
	EffectiveTo     *string          `json:"effectiveTo"`
	Notes           string           `json:"notes"`
}

// ToConfig converts to the domain model. A nil id means a new config.
func (r *LossConfigRequest) ToConfig(configID *id.ID) (*closing.LossRateConfig, error) {
	from, err := ParseDate("effectiveFrom", r.EffectiveFrom)
	if err != nil {
		return nil, err
	}

	var to *time.Time
	if r.EffectiveTo != nil && *r.EffectiveTo != "" {
		parsed, err := ParseDate("effectiveTo", *r.EffectiveTo)
		if err != nil {
			return nil, err
		}
		to = &parsed
	}

	now := time.Now()
	cfg := &closing.LossRateConfig{
		StoreID:         r.StoreID,
		ProductCategory: r.ProductCategory,
		LossRate:        r.LossRate,
		EffectiveFrom:   from,
		EffectiveTo:     to,
		Notes:           r.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if configID != nil {
		cfg.ID = *configID
	} else {
		cfg.ID = id.New()
	}
	return cfg, nil
}
