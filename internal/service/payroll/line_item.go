package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/money"
	statutoryService "github.com/cmlabs-hris/hris-payroll-go/internal/service/statutory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Multipliers are the pay factors per overtime bucket. Night and Holiday are
// premium-only factors because those hours are already paid through the other buckets or base salary.
type Multipliers struct {
	Hours41To46  decimal.Decimal
	HoursAbove46 decimal.Decimal
	Saturday     decimal.Decimal
	Sunday       decimal.Decimal
	Night        decimal.Decimal
	Holiday      decimal.Decimal
}

var DefaultMultipliers = Multipliers{
	Hours41To46:  decimal.RequireFromString("1.15"),
	HoursAbove46: decimal.RequireFromString("1.50"),
	Saturday:     decimal.RequireFromString("1.50"),
	Sunday:       decimal.RequireFromString("1.75"),
	Night:        decimal.RequireFromString("0.75"),
	Holiday:      decimal.RequireFromString("1.00"),
}

// PeriodConstants is the read-only input shared by every line item of one run.
type PeriodConstants struct {
	Brackets    statutory.BracketSet
	Multipliers Multipliers
}

// Line item IDs are derived from (run, employee) so a recalculation reproduces them.
var lineItemNamespace = uuid.MustParse("6f1c3b1e-8a52-4d0e-9a57-2b1f0f6c9d41")

func lineItemID(runID, employeeID string) string {
	return uuid.NewSHA1(lineItemNamespace, []byte(runID+"/"+employeeID)).String()
}

// BuildLineItem computes one employee's pay. It returns *payroll.BelowMinimumWageError
// or payroll.ErrEmployeeHasNoBaseSalary for per-employee problems and panics with
// *payroll.ReconciliationError if the result does not reconcile.
func BuildLineItem(runID string, emp employee.Employee, breakdown attendance.OvertimeBreakdown, pc PeriodConstants) (payroll.LineItem, error) {
	if emp.BaseSalary == nil {
		return payroll.LineItem{}, fmt.Errorf("employee %s: %w", emp.ID, payroll.ErrEmployeeHasNoBaseSalary)
	}
	base := *emp.BaseSalary
	if base.LessThan(pc.Brackets.MinimumWage) {
		return payroll.LineItem{}, &payroll.BelowMinimumWageError{
			EmployeeID:  emp.ID,
			BaseSalary:  base,
			MinimumWage: pc.Brackets.MinimumWage,
		}
	}
	if err := breakdown.Validate(); err != nil {
		return payroll.LineItem{}, fmt.Errorf("employee %s: %w", emp.ID, err)
	}

	overtimePay := OvertimePay(base, breakdown, pc)
	gross := base.Add(overtimePay)
	allowances := money.NonNegative(emp.NonTaxableAllowances)
	taxable := money.NonNegative(gross.Sub(allowances))

	d := statutoryService.ComputeDeductions(pc.Brackets, taxable)
	total := d.Total()

	item := payroll.LineItem{
		ID:                   lineItemID(runID, emp.ID),
		RunID:                runID,
		CompanyID:            emp.CompanyID,
		EmployeeID:           emp.ID,
		EmployeeName:         emp.FullName,
		EmployeeCode:         emp.EmployeeCode,
		EmploymentType:       string(emp.EmploymentType),
		BracketVersion:       pc.Brackets.Version,
		BaseSalary:           base,
		OvertimePay:          overtimePay,
		GrossSalary:          gross,
		NonTaxableAllowances: allowances,
		TaxableGross:         taxable,
		ContributionA:        d.ContributionA,
		ContributionB:        d.ContributionB,
		IncomeTax:            d.IncomeTax,
		TotalDeductions:      total,
		NetSalary:            gross.Sub(total),
		Overtime:             breakdown,
	}
	if err := item.Reconcile(); err != nil {
		panic(err)
	}
	return item, nil
}

// OvertimePay prices every bucket at base / standard monthly hours times its
// multiplier. Each bucket is rounded to a whole unit before summing.
func OvertimePay(base decimal.Decimal, b attendance.OvertimeBreakdown, pc PeriodConstants) decimal.Decimal {
	hours := pc.Brackets.StandardMonthlyHours
	m := pc.Multipliers

	buckets := []struct {
		d    time.Duration
		mult decimal.Decimal
	}{
		{b.Hours41To46, m.Hours41To46},
		{b.HoursAbove46, m.HoursAbove46},
		{b.Saturday, m.Saturday},
		{b.Sunday, m.Sunday},
		{b.Night, m.Night},
		{b.Holiday, m.Holiday},
	}

	total := decimal.Zero
	for _, bucket := range buckets {
		total = total.Add(money.PayForDuration(base, hours, bucket.mult, bucket.d))
	}
	return total
}

// newRunError converts a per-employee failure into a run error. ok is false for
// anything that must instead fail the whole run.
func newRunError(runID string, emp employee.Employee, err error) (payroll.RunError, bool) {
	var code payroll.RunErrorCode
	switch {
	case errors.Is(err, payroll.ErrBelowMinimumWage):
		code = payroll.RunErrorBelowMinimumWage
	case errors.Is(err, attendance.ErrDataIncomplete):
		code = payroll.RunErrorDataIncomplete
	case errors.Is(err, payroll.ErrEmployeeHasNoBaseSalary):
		code = payroll.RunErrorMissingBaseSalary
	default:
		return payroll.RunError{}, false
	}

	return payroll.RunError{
		RunID:        runID,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		EmployeeCode: emp.EmployeeCode,
		Code:         code,
		Message:      err.Error(),
	}, true
}
