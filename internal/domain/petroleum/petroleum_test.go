package petroleum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldepot/internal/core/apperror"
)

func TestCoefficients(t *testing.T) {
	tests := []struct {
		code      string
		wantBeta  float64
		wantAlpha float64
	}{
		{"RON95", 0.0013, 0.00075},
		{"XD92", 0.0013, 0.00075},
		{"E5-RON92", 0.0013, 0.00075},
		{"DO-0.05S", 0.0009, 0.0003},
		{"DIESEL", 0.0009, 0.0003},
		// kerosene has no published loss rate, falls back to gasoline
		{"KEROSENE", 0.001, 0.00075},
		{"DHO", 0.001, 0.00075},
		// unknown codes behave as gasoline
		{"UNKNOWN", 0.0013, 0.00075},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantBeta, ExpansionCoefficient(tt.code))
			assert.Equal(t, tt.wantAlpha, LossCoefficient(tt.code))
		})
	}
}

func TestToStandardVolume(t *testing.T) {
	// 10000 L of gasoline gauged at 30°C shrinks to the 15°C reference
	v15 := ToStandardVolume(10000, 30, 0.0013)
	assert.InDelta(t, 9808.7297, v15, 0.001)

	// at 15°C the volume is already the reference volume
	assert.Equal(t, 5000.0, ToStandardVolume(5000, 15, 0.0013))

	// below 15°C the reference volume is larger
	assert.Greater(t, ToStandardVolume(5000, 5, 0.0013), 5000.0)
}

func TestVolumeRoundTrip(t *testing.T) {
	for _, temp := range []float64{-10, 0, 15, 27.5, 40} {
		v15 := ToStandardVolume(8000, temp, 0.0009)
		back := FromStandardVolume(v15, temp, 0.0009)
		assert.InDelta(t, 8000, back, 1e-9, "temperature %v", temp)
	}
}

func TestCalculateCompartment(t *testing.T) {
	ctx := context.Background()

	res, err := CalculateCompartment(ctx, CompartmentInput{
		TruckVolume:       10000,
		TruckTemperature:  30,
		ActualTemperature: 25,
		ProductCode:       "RON95",
	})
	require.NoError(t, err)

	assert.InDelta(t, 9808.7297, res.VolumeAt15, 0.001)
	// actual volume re-expands to the depot temperature
	assert.InDelta(t, 9936.2432, res.ActualVolume, 0.001)
	assert.InDelta(t, 7.5, res.AllowedLoss, 1e-9)
	assert.Equal(t, 0.0013, res.ExpansionCoeff)
	assert.Equal(t, 0.00075, res.LossCoeff)
}

func TestCalculateCompartmentValidation(t *testing.T) {
	ctx := context.Background()

	_, err := CalculateCompartment(ctx, CompartmentInput{TruckVolume: -1, ProductCode: "RON95"})
	assert.True(t, apperror.IsValidation(err))

	_, err = CalculateCompartment(ctx, CompartmentInput{TruckVolume: 100})
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculateDocument(t *testing.T) {
	ctx := context.Background()

	res, err := CalculateDocument(ctx, []DocumentCompartment{
		{TruckVolume: 6000, ActualVolume: 6010, ReceivedVolume: 5998, ProductCode: "RON95"},
		{TruckVolume: 4000, ActualVolume: 4005, ReceivedVolume: 3996, ProductCode: "RON95"},
	})
	require.NoError(t, err)

	assert.Equal(t, 10000.0, res.TotalTruckVolume)
	assert.Equal(t, 10015.0, res.TotalActualVolume)
	assert.Equal(t, 9994.0, res.TotalReceivedVolume)
	assert.InDelta(t, 6.0, res.TotalLossVolume, 1e-9)
	assert.InDelta(t, 7.5, res.AllowedLossVolume, 1e-9)
	// received - actual loss - allowed loss
	assert.InDelta(t, 9980.5, res.ExcessShortageVolume, 1e-9)
	assert.InDelta(t, 15.0, res.TemperatureAdjustment, 1e-9)
	assert.Equal(t, StatusExcess, res.Status)
}

func TestCalculateDocumentStatus(t *testing.T) {
	ctx := context.Background()

	// received nothing: shortage
	res, err := CalculateDocument(ctx, []DocumentCompartment{
		{TruckVolume: 1000, ActualVolume: 1000, ReceivedVolume: 0, ProductCode: "DO"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusShortage, res.Status)
}

func TestCalculateDocumentEmpty(t *testing.T) {
	_, err := CalculateDocument(context.Background(), nil)
	assert.True(t, apperror.IsValidation(err))
}
