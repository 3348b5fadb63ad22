// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and converting between cents and decimal representations.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountUnits caps a single amount. Sums of realistic ledgers stay far
// below the int64 cent range.
const MaxAmountUnits = 1_000_000_000_000

// maxExponent bounds the decimal exponent accepted from input. Rounding a
// value rescales its coefficient by 10^|exponent|, so 1e99999999 must be
// rejected before any arithmetic.
const maxExponent = 18

var (
	maxCents   int64 = MaxAmountUnits * 100
	maxDecimal       = decimal.NewFromInt(MaxAmountUnits)
)

// ParseAmount converts a user supplied decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to whole cents. Empty, non-numeric, non-finite, negative and zero
// amounts, and amounts above MaxAmountUnits, are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("42.50")  -> Money{Cents: 4250}, nil
//	ParseAmount("12,345") -> Money{Cents: 1235}, nil
//	ParseAmount("abc")    -> Money{}, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	m, err := moneyFromDecimal(d.Abs())
	if err != nil {
		return Money{}, err
	}
	// Sub-cent inputs round to zero.
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return Money{}, ErrInvalidAmount
	}
	if d.Abs().GreaterThan(maxDecimal) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// Validate requires a positive amount no larger than MaxAmountUnits.
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > maxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the value as a float64 for spreadsheet cells and charts.
// Use Cents for calculations.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String always renders two decimal places, e.g. "42.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// MarshalJSON encodes m as a bare JSON number (42.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return ErrInvalidAmount
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return ErrInvalidAmount
	}
	parsed, err := moneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
