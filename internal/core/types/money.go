package types

import "github.com/shopspring/decimal"

// Money is a monetary amount in VND with NUMERIC(15,2) semantics.
type Money = decimal.Decimal

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return decimal.Zero
}

// NewMoney builds an amount from a float value.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}
