package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// ListClosedEntries implements attendance.AttendanceRepository.
// Rejected sessions never count as worked time.
func (r *attendanceRepositoryImpl) ListClosedEntries(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]attendance.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, company_id, clock_in, clock_out, status
		FROM attendances
		WHERE company_id = $1
		  AND employee_id = $2
		  AND clock_out IS NOT NULL
		  AND status <> 'rejected'
		  AND clock_in < $4
		  AND clock_out > $3
		ORDER BY clock_in
	`

	rows, err := q.Query(ctx, query, companyID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var entries []attendance.TimeEntry
	for rows.Next() {
		var e attendance.TimeEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.CompanyID, &e.ClockIn, &e.ClockOut, &e.Status); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	return entries, nil
}

// GetTrackingConfig implements attendance.AttendanceRepository.
// A schedule assignment covering asOf wins over the employee's default schedule.
func (r *attendanceRepositoryImpl) GetTrackingConfig(ctx context.Context, companyID, employeeID string, asOf time.Time) (attendance.TrackingConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH schedule AS (
			SELECT COALESCE(
				-- Override (assignments)
				(
					SELECT esa.work_schedule_id
					FROM employee_schedule_assignments esa
					WHERE esa.employee_id = $1
					  AND $3::date BETWEEN esa.start_date AND COALESCE(esa.end_date, '9999-12-31'::date)
					ORDER BY esa.start_date DESC
					LIMIT 1
				),
				-- Default (employee master)
				(
					SELECT e.work_schedule_id
					FROM employees e
					WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
				)
			) AS work_schedule_id
		)
		SELECT
			ws.id, ws.timezone, ws.night_start, ws.night_end,
			ARRAY(
				SELECT wst.day_of_week
				FROM work_schedule_times wst
				WHERE wst.work_schedule_id = ws.id
				ORDER BY wst.day_of_week
			) AS working_days
		FROM schedule s
		JOIN work_schedules ws ON ws.id = s.work_schedule_id
		WHERE ws.company_id = $2 AND ws.deleted_at IS NULL
	`

	var (
		cfg         attendance.TrackingConfig
		timezone    string
		nightStart  pgtype.Time
		nightEnd    pgtype.Time
		workingDays []int32
	)
	err := q.QueryRow(ctx, query, employeeID, companyID, asOf).Scan(
		&cfg.WorkScheduleID, &timezone, &nightStart, &nightEnd, &workingDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.TrackingConfig{}, attendance.ErrTrackingConfigNotFound
		}
		return attendance.TrackingConfig{}, fmt.Errorf("failed to get tracking config: %w", err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return attendance.TrackingConfig{}, fmt.Errorf("%w: %q: %v", attendance.ErrInvalidTimezone, timezone, err)
	}

	cfg.EmployeeID = employeeID
	cfg.Location = loc
	cfg.RestDays = restDays(workingDays)
	cfg.NightStart = clockOffset(nightStart)
	cfg.NightEnd = clockOffset(nightEnd)
	return cfg, nil
}

// ListHolidays implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListHolidays(ctx context.Context, companyID string, from, to time.Time) ([]attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT date, name
		FROM company_holidays
		WHERE company_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []attendance.Holiday
	for rows.Next() {
		var h attendance.Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}

	return holidays, nil
}

// restDays turns schedule days (1=Monday, ..., 7=Sunday) into the weekdays with no schedule row.
func restDays(workingDays []int32) []time.Weekday {
	working := make(map[time.Weekday]bool, len(workingDays))
	for _, d := range workingDays {
		working[time.Weekday(d%7)] = true
	}

	var rest []time.Weekday
	for _, wd := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if !working[wd] {
			rest = append(rest, wd)
		}
	}
	return rest
}

func clockOffset(t pgtype.Time) *time.Duration {
	if !t.Valid {
		return nil
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	return &d
}
