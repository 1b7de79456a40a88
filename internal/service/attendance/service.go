package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	policy         Policy
}

func NewAttendanceService(attendanceRepo attendance.AttendanceRepository, policy Policy) attendance.OvertimeService {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		policy:         policy,
	}
}

// GetOvertimeBreakdown implements attendance.OvertimeService.
func (s *AttendanceServiceImpl) GetOvertimeBreakdown(ctx context.Context, companyID, employeeID string, periodStart, periodEnd time.Time) (attendance.OvertimeBreakdown, error) {
	if periodEnd.Before(periodStart) {
		return attendance.OvertimeBreakdown{}, attendance.ErrInvalidPeriod
	}

	cfg, err := s.attendanceRepo.GetTrackingConfig(ctx, companyID, employeeID, periodEnd)
	if err != nil {
		if errors.Is(err, attendance.ErrTrackingConfigNotFound) {
			return attendance.OvertimeBreakdown{}, &attendance.DataIncompleteError{
				EmployeeID: employeeID,
				Reason:     "no work schedule assigned",
			}
		}
		return attendance.OvertimeBreakdown{}, fmt.Errorf("failed to get tracking config: %w", err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	// Earlier days of the first ISO week count toward its weekly thresholds.
	from := weekStart(localMidnight(periodStart, loc))
	to := localMidnight(periodEnd, loc).AddDate(0, 0, 1)

	entries, err := s.attendanceRepo.ListClosedEntries(ctx, companyID, employeeID, from, to)
	if err != nil {
		return attendance.OvertimeBreakdown{}, fmt.Errorf("failed to list time entries: %w", err)
	}
	if len(entries) == 0 {
		return attendance.OvertimeBreakdown{}, nil
	}

	holidays, err := s.attendanceRepo.ListHolidays(ctx, companyID, periodStart, periodEnd)
	if err != nil {
		return attendance.OvertimeBreakdown{}, fmt.Errorf("failed to list holidays: %w", err)
	}

	breakdown := Aggregate(entries, cfg, holidays, s.policy, periodStart, periodEnd)
	if err := breakdown.Validate(); err != nil {
		return attendance.OvertimeBreakdown{}, fmt.Errorf("employee %s: %w", employeeID, err)
	}
	return breakdown, nil
}
