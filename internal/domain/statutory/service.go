package statutory

import (
	"time"
)

// Registry resolves the bracket set in force on a given date.
// Implementations are immutable after construction and safe for concurrent reads.
type Registry interface {
	Lookup(date time.Time) (BracketSet, error)
	List() []BracketSet
}
