package attendance

import (
	"context"
	"time"
)

// OvertimeService collapses raw time entries into an OvertimeBreakdown.
type OvertimeService interface {
	// GetOvertimeBreakdown returns a zero breakdown when no entries exist and a
	// *DataIncompleteError when the employee has no time-tracking configuration.
	GetOvertimeBreakdown(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (OvertimeBreakdown, error)
}
