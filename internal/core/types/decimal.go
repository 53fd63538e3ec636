// Package types provides common type aliases and utilities.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits of every persisted monetary amount.
const MoneyPlaces int32 = 2

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Rate is a percentage such as 17.00 for 17%.
type Rate = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	return m, nil
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds half-up to MoneyPlaces. Inputs are non-negative, so
// decimal's half-away-from-zero rounding is half-up here.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// FormatMoney renders m with exactly two fractional digits after rounding.
func FormatMoney(m Money) string {
	return m.StringFixed(MoneyPlaces)
}

// PercentOf returns amount * rate / 100 without rounding.
func PercentOf(amount Money, rate Rate) Money {
	return amount.Mul(rate).Div(hundred)
}

// IsValidRate reports whether rate is a percentage in [0, 100].
func IsValidRate(rate Rate) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}
