package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttendanceRepo struct {
	configs  map[string]attendance.TrackingConfig
	entries  map[string][]attendance.TimeEntry
	holidays []attendance.Holiday
	failWith error
	from     time.Time
}

func (f *fakeAttendanceRepo) ListClosedEntries(_ context.Context, _, employeeID string, from, _ time.Time) ([]attendance.TimeEntry, error) {
	f.from = from
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.entries[employeeID], nil
}

func (f *fakeAttendanceRepo) GetTrackingConfig(_ context.Context, _, employeeID string, _ time.Time) (attendance.TrackingConfig, error) {
	cfg, ok := f.configs[employeeID]
	if !ok {
		return attendance.TrackingConfig{}, attendance.ErrTrackingConfigNotFound
	}
	return cfg, nil
}

func (f *fakeAttendanceRepo) ListHolidays(context.Context, string, time.Time, time.Time) ([]attendance.Holiday, error) {
	return f.holidays, nil
}

func TestGetOvertimeBreakdown(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	repo := &fakeAttendanceRepo{
		configs: map[string]attendance.TrackingConfig{
			"emp-1": weekendOff,
			"emp-2": weekendOff,
		},
		entries: map[string][]attendance.TimeEntry{
			"emp-1": workWeek(10, 10, 10, 10, 8),
		},
	}
	svc := NewAttendanceService(repo, DefaultPolicy)

	t.Run("categorizes hours", func(t *testing.T) {
		b, err := svc.GetOvertimeBreakdown(ctx, "co-1", "emp-1", start, end)
		require.NoError(t, err)
		assert.Equal(t, 6*time.Hour, b.Hours41To46)
		assert.Equal(t, 2*time.Hour, b.HoursAbove46)
	})

	t.Run("reads back to the monday of the first week", func(t *testing.T) {
		_, err := svc.GetOvertimeBreakdown(ctx, "co-1", "emp-1", start, end)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), repo.from)
	})

	t.Run("zero hours is not an error", func(t *testing.T) {
		b, err := svc.GetOvertimeBreakdown(ctx, "co-1", "emp-2", start, end)
		require.NoError(t, err)
		assert.Equal(t, attendance.OvertimeBreakdown{}, b)
	})

	t.Run("missing configuration is data incomplete", func(t *testing.T) {
		_, err := svc.GetOvertimeBreakdown(ctx, "co-1", "emp-3", start, end)
		require.Error(t, err)
		assert.ErrorIs(t, err, attendance.ErrDataIncomplete)

		var incomplete *attendance.DataIncompleteError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "emp-3", incomplete.EmployeeID)
	})

	t.Run("repository failure is not data incomplete", func(t *testing.T) {
		failing := &fakeAttendanceRepo{configs: repo.configs, failWith: errors.New("connection reset")}
		_, err := NewAttendanceService(failing, DefaultPolicy).GetOvertimeBreakdown(ctx, "co-1", "emp-1", start, end)
		require.Error(t, err)
		assert.False(t, errors.Is(err, attendance.ErrDataIncomplete))
	})

	t.Run("inverted period", func(t *testing.T) {
		_, err := svc.GetOvertimeBreakdown(ctx, "co-1", "emp-1", end, start)
		assert.ErrorIs(t, err, attendance.ErrInvalidPeriod)
	})
}
