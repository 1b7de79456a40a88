package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

// Policy holds the statutory overtime thresholds and the default night window.
type Policy struct {
	WeeklyThreshold time.Duration
	SecondThreshold time.Duration
	NightStart      time.Duration
	NightEnd        time.Duration
}

// DefaultPolicy is 40h/46h weekly with night work between 21:00 and 05:00.
var DefaultPolicy = Policy{
	WeeklyThreshold: 40 * time.Hour,
	SecondThreshold: 46 * time.Hour,
	NightStart:      21 * time.Hour,
	NightEnd:        5 * time.Hour,
}

const unbounded = time.Duration(1<<63 - 1)

type isoWeek struct {
	year, week int
}

// Aggregate categorizes the worked time of entries inside [periodStart, periodEnd]
// (whole local days). Entries are clipped to the period and open entries are ignored.
//
// Working-day hours accumulate per ISO week in chronological order and spill into
// Hours41To46 past the weekly threshold and into HoursAbove46 past the second one.
// Hours worked earlier in the ISO week containing periodStart count toward that
// week's thresholds but are not reported, since the previous period paid them.
// Rest-day hours go to Saturday (when the rest day is a Saturday) or Sunday and never
// feed the weekly accumulator. Night and Holiday are tagged independently.
func Aggregate(entries []attendance.TimeEntry, cfg attendance.TrackingConfig, holidays []attendance.Holiday, policy Policy, periodStart, periodEnd time.Time) attendance.OvertimeBreakdown {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	a := aggregator{
		cfg:        cfg,
		policy:     policy,
		holidays:   make(map[string]struct{}, len(holidays)),
		weekly:     make(map[isoWeek]time.Duration),
		nightStart: policy.NightStart,
		nightEnd:   policy.NightEnd,
	}
	if cfg.NightStart != nil && cfg.NightEnd != nil {
		a.nightStart, a.nightEnd = *cfg.NightStart, *cfg.NightEnd
	}
	for _, h := range holidays {
		a.holidays[h.Date.Format(time.DateOnly)] = struct{}{}
	}

	windowStart := localMidnight(periodStart, loc)
	carryStart := weekStart(windowStart)
	windowEnd := localMidnight(periodEnd, loc).AddDate(0, 0, 1)

	sorted := make([]attendance.TimeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClockIn.Before(sorted[j].ClockIn)
	})

	for _, e := range sorted {
		if e.ClockOut == nil || !e.ClockOut.After(e.ClockIn) {
			continue
		}
		start := latest(e.ClockIn.In(loc), carryStart)
		end := earliest(e.ClockOut.In(loc), windowEnd)

		// Split at local midnights so each piece belongs to exactly one calendar day.
		for start.Before(end) {
			dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
			segEnd := earliest(end, dayStart.AddDate(0, 0, 1))
			if dayStart.Before(windowStart) {
				a.carry(dayStart, segEnd.Sub(start))
			} else {
				a.add(dayStart, start, segEnd)
			}
			start = segEnd
		}
	}

	a.out.Regular = a.out.Worked - a.out.Overtime()
	return a.out
}

type aggregator struct {
	cfg        attendance.TrackingConfig
	policy     Policy
	holidays   map[string]struct{}
	weekly     map[isoWeek]time.Duration
	nightStart time.Duration
	nightEnd   time.Duration
	out        attendance.OvertimeBreakdown
}

func (a *aggregator) add(dayStart, start, end time.Time) {
	d := end.Sub(start)
	a.out.Worked += d

	if _, ok := a.holidays[dayStart.Format(time.DateOnly)]; ok {
		a.out.Holiday += d
	}
	a.out.Night += a.nightOverlap(dayStart, start, end)

	wd := dayStart.Weekday()
	if a.cfg.IsRestDay(wd) {
		if wd == time.Saturday {
			a.out.Saturday += d
		} else {
			a.out.Sunday += d
		}
		return
	}

	y, w := dayStart.ISOWeek()
	key := isoWeek{year: y, week: w}
	before := a.weekly[key]
	after := before + d
	a.weekly[key] = after

	a.out.Hours41To46 += overlap(before, after, a.policy.WeeklyThreshold, a.policy.SecondThreshold)
	a.out.HoursAbove46 += overlap(before, after, a.policy.SecondThreshold, unbounded)
}

// carry feeds the weekly accumulator with time already paid by an earlier period.
func (a *aggregator) carry(dayStart time.Time, d time.Duration) {
	if a.cfg.IsRestDay(dayStart.Weekday()) {
		return
	}
	y, w := dayStart.ISOWeek()
	a.weekly[isoWeek{year: y, week: w}] += d
}

func (a *aggregator) nightOverlap(dayStart, start, end time.Time) time.Duration {
	if a.nightStart == a.nightEnd {
		return 0
	}
	s, e := start.Sub(dayStart), end.Sub(dayStart)
	if a.nightStart < a.nightEnd {
		return overlap(s, e, a.nightStart, a.nightEnd)
	}
	dayLength := dayStart.AddDate(0, 0, 1).Sub(dayStart)
	return overlap(s, e, 0, a.nightEnd) + overlap(s, e, a.nightStart, dayLength)
}

// overlap is the length of [a1, a2) ∩ [b1, b2).
func overlap(a1, a2, b1, b2 time.Duration) time.Duration {
	lo, hi := max(a1, b1), min(a2, b2)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func localMidnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// weekStart returns the local midnight of the Monday on or before day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
