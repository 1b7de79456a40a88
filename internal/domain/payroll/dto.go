package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type CreateRunRequest struct {
	Name        string `json:"name"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PayDate     string `json:"pay_date"`

	// Parsed by Validate
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
	Pay   time.Time `json:"-"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	} else if len(r.Name) > 255 {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "must be at most 255 characters"})
	}

	start, ok := validator.IsValidDate(r.PeriodStart)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, ok := validator.IsValidDate(r.PeriodEnd)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a date in YYYY-MM-DD format"})
	}
	pay, ok := validator.IsValidDate(r.PayDate)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "pay_date", Message: "must be a date in YYYY-MM-DD format"})
	}

	if len(errs) == 0 {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
		}
		if pay.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "pay_date", Message: "must not be before period_start"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	r.Start, r.End, r.Pay = start, end, pay
	return nil
}

type RunFilter struct {
	Status    *string `json:"status,omitempty"`
	Year      *int    `json:"year,omitempty"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

func (f *RunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil && !validator.IsInSlice(*f.Status, RunStatusValues) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "is not a valid run status"})
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be at most 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunResponse struct {
	ID              string           `json:"id"`
	CompanyID       string           `json:"company_id"`
	Name            string           `json:"name"`
	PeriodStart     string           `json:"period_start"`
	PeriodEnd       string           `json:"period_end"`
	PayDate         string           `json:"pay_date"`
	Status          string           `json:"status"`
	Incomplete      bool             `json:"incomplete"`
	EmployeeCount   int              `json:"employee_count"`
	ErrorCount      int              `json:"error_count"`
	TotalGross      *decimal.Decimal `json:"total_gross"`
	TotalDeductions *decimal.Decimal `json:"total_deductions"`
	TotalNet        *decimal.Decimal `json:"total_net"`
	BracketVersion  *string          `json:"bracket_version,omitempty"`
	FailureReason   *string          `json:"failure_reason,omitempty"`
	CreatedBy       string           `json:"created_by"`
	CalculatedAt    *string          `json:"calculated_at,omitempty"`
	ApprovedAt      *string          `json:"approved_at,omitempty"`
	ApprovedBy      *string          `json:"approved_by,omitempty"`
	PaidAt          *string          `json:"paid_at,omitempty"`
	PaidBy          *string          `json:"paid_by,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

type LineItemResponse struct {
	ID                   string                               `json:"id"`
	EmployeeID           string                               `json:"employee_id"`
	EmployeeName         string                               `json:"employee_name"`
	EmployeeCode         string                               `json:"employee_code"`
	EmploymentType       string                               `json:"employment_type"`
	BaseSalary           decimal.Decimal                      `json:"base_salary"`
	OvertimePay          decimal.Decimal                      `json:"overtime_pay"`
	GrossSalary          decimal.Decimal                      `json:"gross_salary"`
	NonTaxableAllowances decimal.Decimal                      `json:"non_taxable_allowances"`
	TaxableGross         decimal.Decimal                      `json:"taxable_gross"`
	ContributionA        decimal.Decimal                      `json:"contribution_a"`
	ContributionB        decimal.Decimal                      `json:"contribution_b"`
	IncomeTax            decimal.Decimal                      `json:"income_tax"`
	TotalDeductions      decimal.Decimal                      `json:"total_deductions"`
	NetSalary            decimal.Decimal                      `json:"net_salary"`
	Overtime             attendance.OvertimeBreakdownResponse `json:"overtime"`
	BracketVersion       string                               `json:"bracket_version"`
}

type RunErrorResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	EmployeeCode string `json:"employee_code"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

type RunDetailResponse struct {
	Run       RunResponse        `json:"run"`
	LineItems []LineItemResponse `json:"line_items"`
	Errors    []RunErrorResponse `json:"errors"`
}

// RunSummaryResponse is what calculate and approve return:
// "Calculated of RosterSize employees, Skipped skipped" plus the reasons.
type RunSummaryResponse struct {
	Run        RunResponse        `json:"run"`
	RosterSize int                `json:"roster_size"`
	Calculated int                `json:"calculated"`
	Skipped    int                `json:"skipped"`
	Errors     []RunErrorResponse `json:"errors"`
}

type RunProgressResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// ========== SSE DTOs ==========

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
