package employee

import "errors"

var (
	ErrRosterUnavailable = errors.New("employee roster unavailable")
)
