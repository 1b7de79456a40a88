package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll runs.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Runs
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, companyID, id string) (Run, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) ([]Run, int64, error)
	// DeleteRun removes a draft run. ErrRunStatusConflict when the run left draft.
	DeleteRun(ctx context.Context, companyID, id string) error

	// UpdateStatus is a check-and-set: it moves the run to `to` only while it is
	// still in `from`, and returns ErrRunStatusConflict otherwise.
	UpdateStatus(ctx context.Context, companyID, id string, from, to RunStatus, actorID string) (Run, error)

	// CommitCalculation replaces line items and run errors, writes totals and moves
	// the run from `from` to `to`, all in one transaction.
	CommitCalculation(ctx context.Context, companyID, id string, from, to RunStatus, result CalculationResult) (Run, error)
	// FailCalculation drops any line items and moves the run from `from` to `to`.
	FailCalculation(ctx context.Context, companyID, id string, from, to RunStatus, reason string) (Run, error)
	// FailStaleCalculations moves every run in `from` since before startedBefore to `to`.
	FailStaleCalculations(ctx context.Context, startedBefore time.Time, from, to RunStatus, reason string) ([]Run, error)

	// Line items and errors
	ListLineItems(ctx context.Context, companyID, runID string) ([]LineItem, error)
	ListRunErrors(ctx context.Context, companyID, runID string) ([]RunError, error)

	// Audit
	RecordAudit(ctx context.Context, event AuditEvent) error
}
