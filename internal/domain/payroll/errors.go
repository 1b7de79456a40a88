package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrRunNotFound              = errors.New("payroll run not found")
	ErrInvalidTransition        = errors.New("invalid payroll run transition")
	ErrRunCalculationInProgress = errors.New("payroll run calculation already in progress")
	ErrRunImmutable             = errors.New("payroll run is approved and can no longer be modified")
	ErrRunStatusConflict        = errors.New("payroll run status changed concurrently")
	ErrUnknownRunStatus         = errors.New("unknown payroll run status")
	ErrCalculationFailed        = errors.New("payroll calculation failed")
	ErrInvalidPeriod            = errors.New("invalid payroll period")
	ErrBelowMinimumWage         = errors.New("base salary below statutory minimum wage")
	ErrEmployeeHasNoBaseSalary  = errors.New("employee has no base salary configured")
	ErrReconciliation           = errors.New("line item does not reconcile")
)

// InvalidTransitionError names the rejected (status, action) pair.
type InvalidTransitionError struct {
	From   RunStatus
	Action RunAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s a %s run", ErrInvalidTransition, e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// BelowMinimumWageError is recorded against one employee and skips their line item.
type BelowMinimumWageError struct {
	EmployeeID  string
	BaseSalary  decimal.Decimal
	MinimumWage decimal.Decimal
}

func (e *BelowMinimumWageError) Error() string {
	return fmt.Sprintf("employee %s: %s: %s < %s", e.EmployeeID, ErrBelowMinimumWage, e.BaseSalary, e.MinimumWage)
}

func (e *BelowMinimumWageError) Unwrap() error {
	return ErrBelowMinimumWage
}

// ReconciliationError means the fixed-point contract was broken. It is raised
// with panic and must never be converted into a per-employee error.
type ReconciliationError struct {
	EmployeeID      string
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	Withholdings    []decimal.Decimal
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("employee %s: %s: gross=%s deductions=%s net=%s withholdings=%v",
		e.EmployeeID, ErrReconciliation, e.GrossSalary, e.TotalDeductions, e.NetSalary, e.Withholdings)
}

func (e *ReconciliationError) Unwrap() error {
	return ErrReconciliation
}
