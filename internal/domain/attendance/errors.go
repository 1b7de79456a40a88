package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrDataIncomplete         = errors.New("time-tracking data incomplete")
	ErrTrackingConfigNotFound = errors.New("time-tracking configuration not found")
	ErrInvalidBreakdown       = errors.New("overtime breakdown violates its invariants")
	ErrInvalidPeriod          = errors.New("period_end must not be before period_start")
	ErrInvalidTimezone        = errors.New("invalid work schedule timezone")
)

// DataIncompleteError marks an employee whose overtime cannot be computed at all.
// It is distinct from an employee with zero hours logged.
type DataIncompleteError struct {
	EmployeeID string
	Reason     string
}

func (e *DataIncompleteError) Error() string {
	return fmt.Sprintf("employee %s: %s: %s", e.EmployeeID, ErrDataIncomplete, e.Reason)
}

func (e *DataIncompleteError) Unwrap() error {
	return ErrDataIncomplete
}
