package attendance

import (
	"time"
)

// TimeEntry is one clock-in/clock-out session. Open sessions have a nil ClockOut.
type TimeEntry struct {
	ID         string
	EmployeeID string
	CompanyID  string
	ClockIn    time.Time
	ClockOut   *time.Time
	Status     string
}

// TrackingConfig is the time-tracking setup an employee is bound to for a period:
// the work schedule in force, its rest days and the night window.
type TrackingConfig struct {
	EmployeeID     string
	WorkScheduleID string
	Location       *time.Location
	RestDays       []time.Weekday
	// NightStart and NightEnd are offsets from local midnight. A window where
	// NightStart > NightEnd wraps past midnight. Nil means use the company default.
	NightStart *time.Duration
	NightEnd   *time.Duration
}

// IsRestDay reports whether wd is a designated rest day.
func (c TrackingConfig) IsRestDay(wd time.Weekday) bool {
	for _, d := range c.RestDays {
		if d == wd {
			return true
		}
	}
	return false
}

type Holiday struct {
	Date time.Time
	Name string
}

// OvertimeBreakdown is the categorized worked time for one employee and period.
//
// Hours41To46, HoursAbove46, Saturday and Sunday are mutually exclusive and add up
// to Worked - Regular. Night and Holiday are tags that stack on top of them.
type OvertimeBreakdown struct {
	Worked  time.Duration
	Regular time.Duration

	Hours41To46  time.Duration
	HoursAbove46 time.Duration
	Saturday     time.Duration
	Sunday       time.Duration
	Night        time.Duration
	Holiday      time.Duration
}

// Overtime is the sum of the exclusive buckets.
func (b OvertimeBreakdown) Overtime() time.Duration {
	return b.Hours41To46 + b.HoursAbove46 + b.Saturday + b.Sunday
}

// Validate checks the breakdown invariants.
func (b OvertimeBreakdown) Validate() error {
	for _, d := range []time.Duration{b.Worked, b.Regular, b.Hours41To46, b.HoursAbove46, b.Saturday, b.Sunday, b.Night, b.Holiday} {
		if d < 0 {
			return ErrInvalidBreakdown
		}
	}
	if b.Regular+b.Overtime() != b.Worked {
		return ErrInvalidBreakdown
	}
	if b.Night > b.Worked || b.Holiday > b.Worked {
		return ErrInvalidBreakdown
	}
	return nil
}
