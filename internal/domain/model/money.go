package model

import "github.com/shopspring/decimal"

// ToMinor converts an amount to integer cents.
func ToMinor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromMinor converts integer cents to an amount.
func FromMinor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
