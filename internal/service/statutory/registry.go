package statutory

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
)

// Registry holds every known bracket set sorted by effective date.
// It is never mutated after NewRegistry returns.
type Registry struct {
	sets []statutory.BracketSet
}

func NewRegistry(sets []statutory.BracketSet) (*Registry, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no bracket sets configured", statutory.ErrInvalidBracketSet)
	}

	sorted := make([]statutory.BracketSet, len(sets))
	copy(sorted, sets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	seen := make(map[string]struct{}, len(sorted))
	for i, s := range sorted {
		if err := validateSet(s); err != nil {
			return nil, err
		}
		if _, dup := seen[s.Version]; dup {
			return nil, fmt.Errorf("%w: duplicate version %q", statutory.ErrInvalidBracketSet, s.Version)
		}
		seen[s.Version] = struct{}{}

		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.EffectiveTo == nil || !prev.EffectiveTo.Before(s.EffectiveFrom) {
			return nil, fmt.Errorf("%w: %q overlaps %q", statutory.ErrInvalidBracketSet, prev.Version, s.Version)
		}
	}

	return &Registry{sets: sorted}, nil
}

func (r *Registry) Lookup(date time.Time) (statutory.BracketSet, error) {
	for i := len(r.sets) - 1; i >= 0; i-- {
		if r.sets[i].Contains(date) {
			return r.sets[i], nil
		}
	}
	return statutory.BracketSet{}, &statutory.UnknownBracketVersionError{Date: date}
}

func (r *Registry) List() []statutory.BracketSet {
	out := make([]statutory.BracketSet, len(r.sets))
	copy(out, r.sets)
	return out
}

func validateSet(s statutory.BracketSet) error {
	if s.Version == "" {
		return fmt.Errorf("%w: version is required", statutory.ErrInvalidBracketSet)
	}
	if s.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: %s: effective_from is required", statutory.ErrInvalidBracketSet, s.Version)
	}
	if s.EffectiveTo != nil && s.EffectiveTo.Before(s.EffectiveFrom) {
		return fmt.Errorf("%w: %s: effective_to precedes effective_from", statutory.ErrInvalidBracketSet, s.Version)
	}
	if !s.StandardMonthlyHours.IsPositive() {
		return fmt.Errorf("%w: %s: standard_monthly_hours must be positive", statutory.ErrInvalidBracketSet, s.Version)
	}
	if s.MinimumWage.IsNegative() {
		return fmt.Errorf("%w: %s: minimum_wage must be non-negative", statutory.ErrInvalidBracketSet, s.Version)
	}

	tables := map[string]statutory.Table{
		"contribution_a": s.ContributionA,
		"contribution_b": s.ContributionB,
		"income_tax":     s.IncomeTax,
	}
	for name, t := range tables {
		if err := validateTable(t); err != nil {
			return fmt.Errorf("%w: %s: %s: %v", statutory.ErrInvalidBracketSet, s.Version, name, err)
		}
	}
	return nil
}

func validateTable(t statutory.Table) error {
	if t.FixedAmount.IsNegative() {
		return fmt.Errorf("fixed_amount must be non-negative")
	}
	if len(t.Brackets) == 0 {
		return nil
	}

	var prev *statutory.Bracket
	for i := range t.Brackets {
		b := t.Brackets[i]
		if b.Rate.IsNegative() {
			return fmt.Errorf("bracket %d: rate must be non-negative", i)
		}
		last := i == len(t.Brackets)-1
		if b.UpTo == nil {
			if !last {
				return fmt.Errorf("bracket %d: only the last bracket may be open-ended", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("bracket %d: last bracket must be open-ended", i)
		}
		if !b.UpTo.IsPositive() {
			return fmt.Errorf("bracket %d: up_to must be positive", i)
		}
		if prev != nil && !b.UpTo.GreaterThan(*prev.UpTo) {
			return fmt.Errorf("bracket %d: up_to must be strictly ascending", i)
		}
		prev = &t.Brackets[i]
	}
	return nil
}
