// Package types provides common value types shared across the domain.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity represents a fuel volume in litres with full decimal precision.
// Uses decimal.Decimal so that balance sums and loss arithmetic stay exact;
// volumes map to Postgres NUMERIC(18,3) without floating-point drift.
type Quantity = decimal.Decimal

// ZeroQuantity returns the zero volume.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// NewQuantity creates a Quantity from a float.
// WARNING: prefer NewQuantityFromString for values that must be exact.
func NewQuantity(f float64) Quantity {
	return decimal.NewFromFloat(f)
}

// NewQuantityFromString creates a Quantity from a decimal string.
// This is the preferred constructor for measured volumes.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Rate represents a dimensionless coefficient (loss rate, fill fraction).
// Same representation as Quantity; the alias documents intent at call sites.
type Rate = decimal.Decimal

// NewRateFromString creates a Rate from a decimal string.
func NewRateFromString(s string) (Rate, error) {
	return decimal.NewFromString(s)
}

// MustRate creates a Rate from a string, panics on error.
func MustRate(s string) Rate {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
