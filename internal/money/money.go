// Package money computes invoice and proposal totals. Amounts are
// int64 minor units (cents); the only rounding happens where a value
// becomes an output (a line amount or the tax amount), never in the
// middle of a sum.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNegativeQuantity = errors.New("invalid_quantity")
	ErrNegativeRate     = errors.New("invalid_rate")
	ErrTaxRateRange     = errors.New("invalid_tax_rate")
	ErrAmountFormat     = errors.New("invalid_amount")
)

// Line is a single billable row: a quantity priced at a per-unit rate
// in minor units.
type Line struct {
	Quantity float64
	Rate     int64
}

// Totals is the result of computing a document's money fields.
type Totals struct {
	LineAmounts []int64
	Subtotal    int64
	TaxAmount   int64
	Total       int64
}

// Compute derives line amounts, subtotal, tax and total. An empty line
// list yields all zeros. Negative quantities or rates and tax rates
// outside [0,100] are rejected before any arithmetic.
func Compute(lines []Line, taxRate float64) (Totals, error) {
	if taxRate < 0 || taxRate > 100 || math.IsNaN(taxRate) {
		return Totals{}, ErrTaxRateRange
	}
	for _, line := range lines {
		if line.Quantity < 0 || math.IsNaN(line.Quantity) || math.IsInf(line.Quantity, 0) {
			return Totals{}, ErrNegativeQuantity
		}
		if line.Rate < 0 {
			return Totals{}, ErrNegativeRate
		}
	}

	totals := Totals{LineAmounts: make([]int64, 0, len(lines))}
	for _, line := range lines {
		amount := Amount(line.Quantity, line.Rate)
		totals.LineAmounts = append(totals.LineAmounts, amount)
		totals.Subtotal += amount
	}

	totals.TaxAmount = Tax(totals.Subtotal, taxRate)
	totals.Total = totals.Subtotal + totals.TaxAmount
	return totals, nil
}

// Amount is a single line amount: quantity times rate, rounded to a cent.
func Amount(quantity float64, rate int64) int64 {
	return int64(math.Round(quantity * float64(rate)))
}

// Tax applies a percentage rate to a subtotal, rounded to a cent.
func Tax(subtotal int64, taxRate float64) int64 {
	return int64(math.Round(float64(subtotal) * taxRate / 100))
}

// ParseAmount converts a decimal string such as "1250.50" to minor
// units. At most two fraction digits are accepted; signs are not.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrAmountFormat
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrAmountFormat
	}
	if len(frac) > 2 {
		return 0, ErrAmountFormat
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrAmountFormat
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrAmountFormat
	}
	return units*100 + cents, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders minor units as a plain decimal string, e.g.
// 123450 -> "1234.50".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
