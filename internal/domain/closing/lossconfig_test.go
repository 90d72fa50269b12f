package closing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/core/id"
	"fueldepot/internal/core/types"
	"fueldepot/internal/domain/catalogs/product"
)

func TestLossConfigCreateAutoClosesOpenEnded(t *testing.T) {
	ctx := context.Background()
	repo := &memLossConfigs{}
	svc := NewLossConfigService(repo)
	storeID := id.New()

	first := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0003"),
		EffectiveFrom:   date(2026, 1, 1),
	}
	require.NoError(t, svc.Create(ctx, first))
	assert.False(t, id.IsNil(first.ID))
	assert.Nil(t, first.EffectiveTo)

	second := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0005"),
		EffectiveFrom:   date(2026, 3, 1),
	}
	require.NoError(t, svc.Create(ctx, second))

	// the older open window now ends the day before the new one starts
	require.NotNil(t, first.EffectiveTo)
	assert.True(t, first.EffectiveTo.Equal(date(2026, 2, 28)), "got %s", first.EffectiveTo)
}

func TestLossConfigCreateDuplicateStart(t *testing.T) {
	ctx := context.Background()
	svc := NewLossConfigService(&memLossConfigs{})
	storeID := id.New()

	cfg := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryGasoline,
		LossRate:        types.MustRate("0.001"),
		EffectiveFrom:   date(2026, 1, 1),
	}
	require.NoError(t, svc.Create(ctx, cfg))

	dup := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryGasoline,
		LossRate:        types.MustRate("0.002"),
		EffectiveFrom:   date(2026, 1, 1),
	}
	err := svc.Create(ctx, dup)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestLossConfigValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewLossConfigService(&memLossConfigs{})

	tests := []struct {
		name string
		cfg  LossRateConfig
	}{
		{
			name: "missing store",
			cfg: LossRateConfig{
				ProductCategory: product.CategoryDiesel,
				LossRate:        types.MustRate("0.0003"),
				EffectiveFrom:   date(2026, 1, 1),
			},
		},
		{
			name: "unknown category",
			cfg: LossRateConfig{
				StoreID:         id.New(),
				ProductCategory: "LPG",
				LossRate:        types.MustRate("0.0003"),
				EffectiveFrom:   date(2026, 1, 1),
			},
		},
		{
			name: "negative rate",
			cfg: LossRateConfig{
				StoreID:         id.New(),
				ProductCategory: product.CategoryDiesel,
				LossRate:        types.MustRate("-0.0003"),
				EffectiveFrom:   date(2026, 1, 1),
			},
		},
		{
			name: "missing effective-from",
			cfg: LossRateConfig{
				StoreID:         id.New(),
				ProductCategory: product.CategoryDiesel,
				LossRate:        types.MustRate("0.0003"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.True(t, apperror.IsValidation(svc.Create(ctx, &cfg)))
		})
	}

	// window ending before it starts
	to := date(2025, 12, 1)
	cfg := LossRateConfig{
		StoreID:         id.New(),
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0003"),
		EffectiveFrom:   date(2026, 1, 1),
		EffectiveTo:     &to,
	}
	assert.True(t, apperror.IsValidation(svc.Create(ctx, &cfg)))
}

func TestEffectiveRateMissingConfig(t *testing.T) {
	ctx := context.Background()
	svc := NewLossConfigService(&memLossConfigs{})

	rate, configID, err := svc.EffectiveRate(ctx, id.New(), product.CategoryDiesel, date(2026, 1, 31))
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
	assert.Nil(t, configID)
}

func TestEffectiveRatePicksCoveringWindow(t *testing.T) {
	ctx := context.Background()
	repo := &memLossConfigs{}
	svc := NewLossConfigService(repo)
	storeID := id.New()

	old := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0003"),
		EffectiveFrom:   date(2026, 1, 1),
	}
	require.NoError(t, svc.Create(ctx, old))
	current := &LossRateConfig{
		StoreID:         storeID,
		ProductCategory: product.CategoryDiesel,
		LossRate:        types.MustRate("0.0005"),
		EffectiveFrom:   date(2026, 3, 1),
	}
	require.NoError(t, svc.Create(ctx, current))

	rate, configID, err := svc.EffectiveRate(ctx, storeID, product.CategoryDiesel, date(2026, 2, 15))
	require.NoError(t, err)
	assert.True(t, rate.Equal(types.MustQuantity("0.0003")))
	require.NotNil(t, configID)
	assert.Equal(t, old.ID, *configID)

	rate, configID, err = svc.EffectiveRate(ctx, storeID, product.CategoryDiesel, date(2026, 4, 1))
	require.NoError(t, err)
	assert.True(t, rate.Equal(types.MustQuantity("0.0005")))
	require.NotNil(t, configID)
	assert.Equal(t, current.ID, *configID)
}

func TestLossConfigUpdateNormalizesDays(t *testing.T) {
	ctx := context.Background()
	repo := &memLossConfigs{}
	svc := NewLossConfigService(repo)

	cfg := &LossRateConfig{
		StoreID:         id.New(),
		ProductCategory: product.CategoryKerosene,
		LossRate:        types.MustRate("0.001"),
		EffectiveFrom:   date(2026, 1, 1),
	}
	require.NoError(t, svc.Create(ctx, cfg))

	cfg.EffectiveFrom = time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)
	require.NoError(t, svc.Update(ctx, cfg))
	assert.True(t, cfg.EffectiveFrom.Equal(date(2026, 1, 5)))
}

func TestLossConfigDeleteMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewLossConfigService(&memLossConfigs{})
	assert.True(t, apperror.IsNotFound(svc.Delete(ctx, id.New())))
}
