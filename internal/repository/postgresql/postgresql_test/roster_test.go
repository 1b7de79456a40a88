package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rosterFixture struct {
	companyID  string
	scheduleID string
	activeID   string
	resignedID string
}

func seedRoster(t *testing.T, setup *TestDatabaseSetup) rosterFixture {
	t.Helper()
	ctx := context.Background()
	f := rosterFixture{companyID: uuid.NewString()}

	err := setup.DB.QueryRow(ctx, `
		INSERT INTO work_schedules (company_id, name, timezone, night_start, night_end)
		VALUES ($1, 'Office', 'Africa/Abidjan', '22:00', '06:00')
		RETURNING id
	`, f.companyID).Scan(&f.scheduleID)
	require.NoError(t, err)

	for day := 1; day <= 5; day++ {
		_, err := setup.DB.Exec(ctx, `
			INSERT INTO work_schedule_times (work_schedule_id, day_of_week, clock_in_time, clock_out_time)
			VALUES ($1, $2, '08:00', '16:00')
		`, f.scheduleID, day)
		require.NoError(t, err)
	}

	err = setup.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, work_schedule_id, employee_code, full_name, hire_date, base_salary)
		VALUES ($1, $2, 'E-001', 'Awa Kone', '2024-03-01', 100000)
		RETURNING id
	`, f.companyID, f.scheduleID).Scan(&f.activeID)
	require.NoError(t, err)

	err = setup.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, hire_date, resignation_date, base_salary)
		VALUES ($1, 'E-002', 'Yao Koffi', '2023-01-01', '2024-12-31', 90000)
		RETURNING id
	`, f.companyID).Scan(&f.resignedID)
	require.NoError(t, err)

	var componentID string
	err = setup.DB.QueryRow(ctx, `
		INSERT INTO payroll_components (company_id, name, type, is_taxable)
		VALUES ($1, 'Transport', 'allowance', false)
		RETURNING id
	`, f.companyID).Scan(&componentID)
	require.NoError(t, err)

	_, err = setup.DB.Exec(ctx, `
		INSERT INTO employee_payroll_components (employee_id, payroll_component_id, amount, effective_date)
		VALUES ($1, $2, 25000, '2024-06-01')
	`, f.activeID, componentID)
	require.NoError(t, err)

	return f
}

func TestEmployeeRepository_ListActiveEmployees(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := seedRoster(t, setup)
	repo := postgresql.NewEmployeeRepository(setup.DB)

	employees, err := repo.ListActiveEmployees(ctx, f.companyID, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, f.activeID, employees[0].ID)
	require.NotNil(t, employees[0].BaseSalary)
	assert.True(t, employees[0].BaseSalary.Equal(decimal.NewFromInt(100000)))
	assert.True(t, employees[0].NonTaxableAllowances.Equal(decimal.NewFromInt(25000)))

	employees, err = repo.ListActiveEmployees(ctx, f.companyID, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestEmployeeRepository_ListActiveEmployees_EmploymentStatus(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := seedRoster(t, setup)
	repo := postgresql.NewEmployeeRepository(setup.DB)

	var leavingID string
	err := setup.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, employment_status, hire_date, resignation_date, base_salary)
		VALUES ($1, 'E-003', 'Kouassi Yao', 'resigned', '2024-01-01', '2025-02-15', 95000)
		RETURNING id
	`, f.companyID).Scan(&leavingID)
	require.NoError(t, err)

	_, err = setup.DB.Exec(ctx, `
		INSERT INTO employees (company_id, employee_code, full_name, employment_status, hire_date, base_salary)
		VALUES ($1, 'E-004', 'Adjoua Brou', 'terminated', '2024-01-01', 80000)
	`, f.companyID)
	require.NoError(t, err)

	employees, err := repo.ListActiveEmployees(ctx, f.companyID, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{f.activeID, leavingID}, ids)
}

func TestAttendanceRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	f := seedRoster(t, setup)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	t.Run("tracking config from default schedule", func(t *testing.T) {
		cfg, err := repo.GetTrackingConfig(ctx, f.companyID, f.activeID, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, f.scheduleID, cfg.WorkScheduleID)
		assert.Equal(t, "Africa/Abidjan", cfg.Location.String())
		assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.RestDays)
		require.NotNil(t, cfg.NightStart)
		assert.Equal(t, 22*time.Hour, *cfg.NightStart)
	})

	t.Run("no schedule", func(t *testing.T) {
		_, err := repo.GetTrackingConfig(ctx, f.companyID, f.resignedID, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, attendance.ErrTrackingConfigNotFound)
	})

	t.Run("closed entries only", func(t *testing.T) {
		in := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
		for _, row := range []struct {
			clockOut *time.Time
			status   string
		}{
			{ptr(in.Add(9 * time.Hour)), "approved"},
			{ptr(in.Add(9 * time.Hour)), "rejected"},
			{nil, "waiting_approval"},
		} {
			_, err := setup.DB.Exec(ctx, `
				INSERT INTO attendances (employee_id, company_id, date, clock_in, clock_out, status)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, f.activeID, f.companyID, in.Truncate(24*time.Hour), in, row.clockOut, row.status)
			require.NoError(t, err)
		}

		entries, err := repo.ListClosedEntries(ctx, f.companyID, f.activeID,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "approved", entries[0].Status)
	})

	t.Run("holidays in range", func(t *testing.T) {
		_, err := setup.DB.Exec(ctx, `
			INSERT INTO company_holidays (company_id, date, name) VALUES ($1, '2025-01-01', 'New Year'), ($1, '2025-04-21', 'Easter Monday')
		`, f.companyID)
		require.NoError(t, err)

		holidays, err := repo.ListHolidays(ctx, f.companyID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, holidays, 1)
		assert.Equal(t, "New Year", holidays[0].Name)
	})
}

func ptr[T any](v T) *T {
	return &v
}
