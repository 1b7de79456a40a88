package statutory

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// ComputeDeductions applies each of the set's three tables to taxableGross
// independently. Every withholding is rounded to a whole unit on its own.
func ComputeDeductions(set statutory.BracketSet, taxableGross decimal.Decimal) statutory.Deductions {
	return statutory.Deductions{
		ContributionA: ApplyTable(set.ContributionA, taxableGross),
		ContributionB: ApplyTable(set.ContributionB, taxableGross),
		IncomeTax:     ApplyTable(set.IncomeTax, taxableGross),
	}
}

// ApplyTable folds base over the sorted brackets, taxing each slice at its own
// marginal rate, then rounds the result once.
func ApplyTable(table statutory.Table, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}

	remaining := base
	lower := decimal.Zero
	owed := decimal.Zero
	for _, b := range table.Brackets {
		if !remaining.IsPositive() {
			break
		}
		slice := remaining
		if b.UpTo != nil {
			if width := b.UpTo.Sub(lower); slice.GreaterThan(width) {
				slice = width
			}
			lower = *b.UpTo
		}
		owed = owed.Add(slice.Mul(b.Rate))
		remaining = remaining.Sub(slice)
	}

	return money.RoundUnit(owed.Add(table.FixedAmount))
}
