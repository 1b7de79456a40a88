// Package money holds the fixed-point helpers used for every monetary and
// hour quantity in payroll. Nothing here touches float64.
package money

import (
	"time"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// RoundUnit rounds to the nearest whole currency unit, half away from zero.
func RoundUnit(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Sum adds amounts without rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Minutes returns the whole minutes in d. Sub-minute remainders are dropped.
func Minutes(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Minute))
}

// Hours renders d as decimal hours with two places, e.g. 90m -> 1.5.
func Hours(d time.Duration) decimal.Decimal {
	return Minutes(d).Div(minutesPerHour).Round(2)
}

// PayForDuration prices d at base/standardHours per hour times multiplier,
// rounded once to a whole unit. The division happens last so no intermediate
// hourly rate is ever rounded.
func PayForDuration(base, standardHours, multiplier decimal.Decimal, d time.Duration) decimal.Decimal {
	if d <= 0 || standardHours.IsZero() || multiplier.IsZero() {
		return decimal.Zero
	}
	numerator := base.Mul(Minutes(d)).Mul(multiplier)
	denominator := standardHours.Mul(minutesPerHour)
	return RoundUnit(numerator.Div(denominator))
}
