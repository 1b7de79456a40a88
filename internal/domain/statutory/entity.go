package statutory

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// Bracket is one slice of a withholding table. A nil UpTo marks the open-ended top bracket.
type Bracket struct {
	UpTo *decimal.Decimal
	Rate decimal.Decimal
}

// Table is the bracket schedule for a single withholding.
type Table struct {
	Brackets []Bracket
	// FixedAmount is charged on top of the bracket result whenever the taxable base is positive.
	FixedAmount decimal.Decimal
}

// TopRate is the rate of the last bracket, or zero for an empty table.
func (t Table) TopRate() decimal.Decimal {
	if len(t.Brackets) == 0 {
		return decimal.Zero
	}
	return t.Brackets[len(t.Brackets)-1].Rate
}

// BracketSet is every statutory constant in force for one effective date range.
type BracketSet struct {
	Version              string
	EffectiveFrom        time.Time
	EffectiveTo          *time.Time
	Currency             string
	MinimumWage          decimal.Decimal
	StandardMonthlyHours decimal.Decimal
	ContributionA        Table
	ContributionB        Table
	IncomeTax            Table
}

// Contains reports whether date falls inside the set's effective range (both ends inclusive).
func (s BracketSet) Contains(date time.Time) bool {
	day := truncateDay(date)
	if day.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !day.After(*s.EffectiveTo)
}

// Deductions holds the three withholdings, each already rounded to a whole unit.
type Deductions struct {
	ContributionA decimal.Decimal
	ContributionB decimal.Decimal
	IncomeTax     decimal.Decimal
}

// Total is the plain sum of the rounded parts. It is never rounded again.
func (d Deductions) Total() decimal.Decimal {
	return money.Sum(d.ContributionA, d.ContributionB, d.IncomeTax)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
