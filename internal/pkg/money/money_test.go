package money

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.49", "0"},
		{"0.5", "1"},
		{"6550.803", "6551"},
		{"4636.5", "4637"},
		{"-2.5", "-3"},
		{"100000", "100000"},
	}
	for _, c := range cases {
		got := RoundUnit(decimal.RequireFromString(c.in))
		assert.Equal(t, c.want, got.String(), "RoundUnit(%s)", c.in)
	}
}

func TestHours(t *testing.T) {
	assert.Equal(t, "1.5", Hours(90*time.Minute).String())
	assert.Equal(t, "0", Hours(59*time.Second).String())
	assert.Equal(t, "6", Hours(6*time.Hour).String())
}

func TestPayForDuration(t *testing.T) {
	base := decimal.NewFromInt(100000)
	hours := decimal.RequireFromString("173.33")

	// 100000 * 6 * 1.15 / 173.33 = 3980.84...
	got := PayForDuration(base, hours, decimal.RequireFromString("1.15"), 6*time.Hour)
	assert.Equal(t, "3981", got.String())

	assert.True(t, PayForDuration(base, hours, decimal.NewFromInt(1), 0).IsZero())
	assert.True(t, PayForDuration(base, decimal.Zero, decimal.NewFromInt(1), time.Hour).IsZero())
}

func TestSumAndNonNegative(t *testing.T) {
	got := Sum(decimal.NewFromInt(1), decimal.RequireFromString("2.5"), decimal.NewFromInt(-1))
	assert.Equal(t, "2.5", got.String())
	assert.True(t, NonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.Equal(t, "5", NonNegative(decimal.NewFromInt(5)).String())
}
