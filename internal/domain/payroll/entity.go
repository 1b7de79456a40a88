package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// Run is one payroll calculation for a company and pay period.
type Run struct {
	ID          string
	CompanyID   string
	Name        string
	PeriodStart time.Time
	PeriodEnd   time.Time
	PayDate     time.Time
	Status      RunStatus

	// Set by a committed calculation. Totals stay nil before that.
	EmployeeCount   int
	ErrorCount      int
	TotalGross      *decimal.Decimal
	TotalDeductions *decimal.Decimal
	TotalNet        *decimal.Decimal
	BracketVersion  *string
	Generation      int

	FailureReason        *string
	CreatedBy            string
	CalculationStartedAt *time.Time
	CalculatedAt         *time.Time
	ApprovedAt           *time.Time
	ApprovedBy           *string
	PaidAt               *time.Time
	PaidBy               *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Incomplete reports whether the committed calculation skipped employees.
func (r Run) Incomplete() bool {
	return r.Status.HasTotals() && r.ErrorCount > 0
}

// LineItem is one employee's computed pay within a run. Employee name and code
// are snapshots taken at calculation time.
type LineItem struct {
	ID             string
	RunID          string
	CompanyID      string
	EmployeeID     string
	EmployeeName   string
	EmployeeCode   string
	EmploymentType string
	BracketVersion string

	BaseSalary           decimal.Decimal
	OvertimePay          decimal.Decimal
	GrossSalary          decimal.Decimal
	NonTaxableAllowances decimal.Decimal
	TaxableGross         decimal.Decimal
	ContributionA        decimal.Decimal
	ContributionB        decimal.Decimal
	IncomeTax            decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetSalary            decimal.Decimal

	Overtime attendance.OvertimeBreakdown
}

// Reconcile checks total = A + B + tax and net = gross - total, exactly.
func (li LineItem) Reconcile() error {
	sum := money.Sum(li.ContributionA, li.ContributionB, li.IncomeTax)
	if sum.Equal(li.TotalDeductions) && li.GrossSalary.Sub(li.TotalDeductions).Equal(li.NetSalary) {
		return nil
	}
	return &ReconciliationError{
		EmployeeID:      li.EmployeeID,
		GrossSalary:     li.GrossSalary,
		TotalDeductions: li.TotalDeductions,
		NetSalary:       li.NetSalary,
		Withholdings:    []decimal.Decimal{li.ContributionA, li.ContributionB, li.IncomeTax},
	}
}

type RunErrorCode string

const (
	RunErrorBelowMinimumWage  RunErrorCode = "below_minimum_wage"
	RunErrorDataIncomplete    RunErrorCode = "data_incomplete"
	RunErrorMissingBaseSalary RunErrorCode = "missing_base_salary"
)

// RunError records why an employee was left out of the committed line items.
type RunError struct {
	RunID        string
	EmployeeID   string
	EmployeeName string
	EmployeeCode string
	Code         RunErrorCode
	Message      string
}

// CalculationResult is everything a successful calculating pass commits at once.
type CalculationResult struct {
	BracketVersion  string
	LineItems       []LineItem
	Errors          []RunError
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
}

// NewCalculationResult derives run totals by summing the line items.
func NewCalculationResult(bracketVersion string, items []LineItem, errs []RunError) CalculationResult {
	res := CalculationResult{
		BracketVersion:  bracketVersion,
		LineItems:       items,
		Errors:          errs,
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, li := range items {
		res.TotalGross = res.TotalGross.Add(li.GrossSalary)
		res.TotalDeductions = res.TotalDeductions.Add(li.TotalDeductions)
		res.TotalNet = res.TotalNet.Add(li.NetSalary)
	}
	return res
}

type AuditAction string

const (
	AuditRunCreated    AuditAction = "payroll.run.create"
	AuditRunCalculated AuditAction = "payroll.run.calculate"
	AuditRunFailed     AuditAction = "payroll.run.fail"
	AuditRunApproved   AuditAction = "payroll.run.approve"
	AuditRunPaid       AuditAction = "payroll.run.pay"
	AuditRunDeleted    AuditAction = "payroll.run.delete"
)

type AuditEvent struct {
	ID        string
	CompanyID string
	ActorID   *string
	Action    AuditAction
	RunID     string
	Details   map[string]any
	CreatedAt time.Time
}
