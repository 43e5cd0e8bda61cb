package money

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_BasicInvoice(t *testing.T) {
	totals, err := Compute([]Line{{Quantity: 2, Rate: 5000}}, 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{10000}, totals.LineAmounts)
	assert.Equal(t, int64(10000), totals.Subtotal)
	assert.Equal(t, int64(1000), totals.TaxAmount)
	assert.Equal(t, int64(11000), totals.Total)
}

func TestCompute_EmptyItems(t *testing.T) {
	totals, err := Compute(nil, 10)
	require.NoError(t, err)

	assert.Empty(t, totals.LineAmounts)
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.TaxAmount)
	assert.Zero(t, totals.Total)
}

func TestCompute_RejectsBadInput(t *testing.T) {
	_, err := Compute([]Line{{Quantity: -1, Rate: 100}}, 0)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	_, err = Compute([]Line{{Quantity: 1, Rate: -100}}, 0)
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = Compute([]Line{{Quantity: 1, Rate: 100}}, 101)
	assert.ErrorIs(t, err, ErrTaxRateRange)

	_, err = Compute([]Line{{Quantity: 1, Rate: 100}}, -0.5)
	assert.ErrorIs(t, err, ErrTaxRateRange)
}

func TestCompute_TotalIsSubtotalPlusTax(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		lines := make([]Line, rng.Intn(8))
		for j := range lines {
			lines[j] = Line{Quantity: float64(rng.Intn(20)), Rate: int64(rng.Intn(500000))}
		}
		taxRate := float64(rng.Intn(101))

		totals, err := Compute(lines, taxRate)
		require.NoError(t, err)

		var subtotal int64
		for _, amount := range totals.LineAmounts {
			subtotal += amount
		}
		assert.Equal(t, subtotal, totals.Subtotal)
		assert.Equal(t, Tax(subtotal, taxRate), totals.TaxAmount)
		assert.Equal(t, totals.Subtotal+totals.TaxAmount, totals.Total)
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	lines := []Line{
		{Quantity: 3, Rate: 12550},
		{Quantity: 1.5, Rate: 9900},
		{Quantity: 10, Rate: 75},
	}
	reversed := []Line{lines[2], lines[1], lines[0]}

	a, err := Compute(lines, 8.25)
	require.NoError(t, err)
	b, err := Compute(reversed, 8.25)
	require.NoError(t, err)

	assert.Equal(t, a.Subtotal, b.Subtotal)
	assert.Equal(t, a.TaxAmount, b.TaxAmount)
	assert.Equal(t, a.Total, b.Total)
}

func TestCompute_Idempotent(t *testing.T) {
	lines := []Line{{Quantity: 2.5, Rate: 19999}, {Quantity: 4, Rate: 2500}}

	first, err := Compute(lines, 7.5)
	require.NoError(t, err)
	second, err := Compute(lines, 7.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseAmount(t *testing.T) {
	cases := map[string]int64{
		"0":       0,
		"1":       100,
		"1250.50": 125050,
		"99.9":    9990,
		".25":     25,
		" 10.00 ": 1000,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "-5", "1.234", "abc", "1.2c"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrAmountFormat, in)
	}
}

func TestParseAmountRejectsEmbeddedSigns(t *testing.T) {
	// Per-part integer parsing must not accept signs: "1.-5" is not 95
	// cents, it is malformed input.
	for _, in := range []string{"1.-5", "1.+5", "+5", "5.+0", "+1.25", "1.- 5"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrAmountFormat, in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "1234.50", FormatAmount(123450))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "-3.21", FormatAmount(-321))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123450, 999999999} {
		parsed, err := ParseAmount(FormatAmount(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, parsed)
	}
}
