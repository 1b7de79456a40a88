package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/money"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type OvertimeQuery struct {
	EmployeeID  string
	PeriodStart string
	PeriodEnd   string

	// Parsed by Validate
	Start time.Time
	End   time.Time
}

func (q *OvertimeQuery) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(q.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	} else if !validator.IsValidAnyUUID(q.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}

	start, ok := validator.IsValidDate(q.PeriodStart)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, ok := validator.IsValidDate(q.PeriodEnd)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a date in YYYY-MM-DD format"})
	}

	if len(errs) == 0 && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: ErrInvalidPeriod.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	q.Start, q.End = start, end
	return nil
}

// OvertimeBreakdownResponse carries every bucket as decimal hours.
type OvertimeBreakdownResponse struct {
	WorkedHours  decimal.Decimal `json:"worked_hours"`
	RegularHours decimal.Decimal `json:"regular_hours"`
	Hours41To46  decimal.Decimal `json:"hours_41_to_46"`
	HoursAbove46 decimal.Decimal `json:"hours_above_46"`
	Saturday     decimal.Decimal `json:"saturday"`
	Sunday       decimal.Decimal `json:"sunday"`
	Night        decimal.Decimal `json:"night"`
	Holiday      decimal.Decimal `json:"holiday"`
}

func NewOvertimeBreakdownResponse(b OvertimeBreakdown) OvertimeBreakdownResponse {
	return OvertimeBreakdownResponse{
		WorkedHours:  money.Hours(b.Worked),
		RegularHours: money.Hours(b.Regular),
		Hours41To46:  money.Hours(b.Hours41To46),
		HoursAbove46: money.Hours(b.HoursAbove46),
		Saturday:     money.Hours(b.Saturday),
		Sunday:       money.Hours(b.Sunday),
		Night:        money.Hours(b.Night),
		Holiday:      money.Hours(b.Holiday),
	}
}
