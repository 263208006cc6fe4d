package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundDownTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		name  string
		value string
		scale int
		want  string
	}{
		{name: "quantity four places", value: "1.23456", scale: 4, want: "1.2345"},
		{name: "never rounds up", value: "0.99999", scale: 2, want: "0.99"},
		{name: "negative toward zero", value: "-1.23456", scale: 4, want: "-1.2345"},
		{name: "integer scale", value: "15.9", scale: 0, want: "15"},
		{name: "already short", value: "2.5", scale: 6, want: "2.5"},
		{name: "negative scale clamps", value: "3.7", scale: -2, want: "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RoundDown(decimal.RequireFromString(tc.value), tc.scale)
			require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestRoundDownIsIdempotent(t *testing.T) {
	values := []string{"1.23456", "0.000019", "98765.4321", "-0.5555"}
	for _, raw := range values {
		for scale := 0; scale <= 8; scale++ {
			once := RoundDown(decimal.RequireFromString(raw), scale)
			twice := RoundDown(once, scale)
			require.True(t, once.Equal(twice), "value %s scale %d", raw, scale)
		}
	}
}

func TestFormatPadsToScale(t *testing.T) {
	require.Equal(t, "1.2000", Format(decimal.RequireFromString("1.2"), 4))
	require.Equal(t, "0.00012345", Format(decimal.RequireFromString("0.000123456"), 8))
	require.Equal(t, "42", Format(decimal.RequireFromString("42.99"), 0))
}

func TestScaleFromIncrement(t *testing.T) {
	cases := map[string]int{
		"0.001":      3,
		"0.01":       2,
		"1":          0,
		"0.00000001": 8,
		"10":         -1,
	}
	for raw, want := range cases {
		require.Equal(t, want, ScaleFromIncrement(decimal.RequireFromString(raw)), raw)
	}
	require.Equal(t, 0, ScaleFromIncrement(decimal.Zero))
}

func TestScaleFromStep(t *testing.T) {
	require.Equal(t, 3, ScaleFromStep("0.001"))
	require.Equal(t, 2, ScaleFromStep("0.0100"))
	require.Equal(t, 0, ScaleFromStep("1"))
	require.Equal(t, 0, ScaleFromStep(""))
}

func TestDivSignificant(t *testing.T) {
	got := DivSignificant(decimal.NewFromInt(21), decimal.NewFromInt(2), AveragePriceDigits)
	require.True(t, got.Equal(decimal.RequireFromString("10.5")), "got %s", got)

	third := DivSignificant(decimal.NewFromInt(1), decimal.NewFromInt(3), AveragePriceDigits)
	require.True(t, third.Equal(decimal.RequireFromString("0.33333333")), "got %s", third)

	big := DivSignificant(decimal.RequireFromString("123456789"), decimal.NewFromInt(1), AveragePriceDigits)
	require.True(t, big.Equal(decimal.RequireFromString("123456790")), "got %s", big)

	require.True(t, DivSignificant(decimal.NewFromInt(5), decimal.Zero, AveragePriceDigits).IsZero())
	require.True(t, DivSignificant(decimal.Zero, decimal.NewFromInt(5), AveragePriceDigits).IsZero())

	negative := DivSignificant(decimal.NewFromInt(-21), decimal.NewFromInt(2), AveragePriceDigits)
	require.True(t, negative.Equal(decimal.RequireFromString("-10.5")), "got %s", negative)
}

func TestDivSignificantTinyQuotient(t *testing.T) {
	den := decimal.RequireFromString("3000000000000000000000000000000")
	got := DivSignificant(decimal.NewFromInt(1), den, AveragePriceDigits)
	require.True(t, got.Equal(decimal.New(33333333, -38)), "got %s", got)
}

func TestDivSignificantRoundsOnce(t *testing.T) {
	num := decimal.RequireFromString("1.2345678499999999999999999999999999999")
	got := DivSignificant(num, decimal.NewFromInt(1), AveragePriceDigits)
	require.True(t, got.Equal(decimal.RequireFromString("1.2345678")), "got %s", got)

	up := DivSignificant(decimal.RequireFromString("1.23456785"), decimal.NewFromInt(1), AveragePriceDigits)
	require.True(t, up.Equal(decimal.RequireFromString("1.2345679")), "got %s", up)
}

func TestParse(t *testing.T) {
	d, ok := Parse(" 12.50 ")
	require.True(t, ok)
	require.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, ok = Parse("abc")
	require.False(t, ok)
	_, ok = Parse("")
	require.False(t, ok)
}
