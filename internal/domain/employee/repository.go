package employee

import (
	"context"
	"time"
)

type EmployeeRepository interface {
	// ListActiveEmployees returns employees employed on asOf, ordered by employee code.
	ListActiveEmployees(ctx context.Context, companyID string, asOf time.Time) ([]Employee, error)
}
