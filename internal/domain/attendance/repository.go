package attendance

import (
	"context"
	"time"
)

// AttendanceRepository reads time-tracking data. Every method is scoped by companyID.
type AttendanceRepository interface {
	// ListClosedEntries returns sessions that overlap [from, to) and have a clock-out.
	ListClosedEntries(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]TimeEntry, error)
	// GetTrackingConfig returns ErrTrackingConfigNotFound when the employee has no work schedule as of asOf.
	GetTrackingConfig(ctx context.Context, companyID, employeeID string, asOf time.Time) (TrackingConfig, error)
	ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]Holiday, error)
}
