package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRun(companyID string) payroll.Run {
	return payroll.Run{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CompanyID:   companyID,
		Name:        "January 2025",
		PeriodStart: date(2025, 1, 1),
		PeriodEnd:   date(2025, 1, 31),
		PayDate:     date(2025, 2, 5),
		Status:      payroll.RunStatusDraft,
		CreatedBy:   uuid.NewString(),
	}
}

func sampleResult(run payroll.Run) payroll.CalculationResult {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	item := payroll.LineItem{
		ID:                   uuid.NewString(),
		RunID:                run.ID,
		CompanyID:            run.CompanyID,
		EmployeeID:           uuid.NewString(),
		EmployeeName:         "Awa Kone",
		EmployeeCode:         "E-001",
		EmploymentType:       "permanent",
		BracketVersion:       "ci-2025",
		BaseSalary:           d("100000"),
		OvertimePay:          d("3981"),
		GrossSalary:          d("103981"),
		NonTaxableAllowances: d("0"),
		TaxableGross:         d("103981"),
		ContributionA:        d("6551"),
		ContributionB:        d("1000"),
		IncomeTax:            d("4637"),
		TotalDeductions:      d("12188"),
		NetSalary:            d("91793"),
		Overtime: attendance.OvertimeBreakdown{
			Worked:      46 * time.Hour,
			Regular:     40 * time.Hour,
			Hours41To46: 6 * time.Hour,
		},
	}
	runErr := payroll.RunError{
		RunID:        run.ID,
		EmployeeID:   uuid.NewString(),
		EmployeeName: "Yao Koffi",
		EmployeeCode: "E-002",
		Code:         payroll.RunErrorBelowMinimumWage,
		Message:      "base salary below statutory minimum wage",
	}
	return payroll.NewCalculationResult("ci-2025", []payroll.LineItem{item}, []payroll.RunError{runErr})
}

func TestPayrollRepository_Lifecycle(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	companyID := uuid.NewString()
	actorID := uuid.NewString()

	run, err := repo.CreateRun(ctx, newRun(companyID))
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, run.Status)
	assert.Nil(t, run.TotalNet)

	_, err = repo.GetRun(ctx, uuid.NewString(), run.ID)
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)

	_, err = repo.CommitCalculation(ctx, companyID, run.ID, payroll.RunStatusCalculating, payroll.RunStatusCalculated, sampleResult(run))
	assert.ErrorIs(t, err, payroll.ErrRunStatusConflict)

	claimed, err := repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, actorID)
	require.NoError(t, err)
	assert.NotNil(t, claimed.CalculationStartedAt)

	_, err = repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, actorID)
	assert.ErrorIs(t, err, payroll.ErrRunStatusConflict)

	result := sampleResult(run)
	committed, err := repo.CommitCalculation(ctx, companyID, run.ID, payroll.RunStatusCalculating, payroll.RunStatusCalculated, result)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusCalculated, committed.Status)
	assert.Equal(t, 1, committed.EmployeeCount)
	assert.Equal(t, 1, committed.ErrorCount)
	assert.Equal(t, 1, committed.Generation)
	require.NotNil(t, committed.TotalNet)
	assert.True(t, committed.TotalNet.Equal(decimal.NewFromInt(91793)))

	items, err := repo.ListLineItems(ctx, companyID, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, result.LineItems[0].ID, items[0].ID)
	assert.True(t, items[0].NetSalary.Equal(result.LineItems[0].NetSalary))
	assert.Equal(t, 6*time.Hour, items[0].Overtime.Hours41To46)
	assert.NoError(t, items[0].Reconcile())

	runErrs, err := repo.ListRunErrors(ctx, companyID, run.ID)
	require.NoError(t, err)
	require.Len(t, runErrs, 1)
	assert.Equal(t, payroll.RunErrorBelowMinimumWage, runErrs[0].Code)

	approved, err := repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusCalculated, payroll.RunStatusApproved, actorID)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, actorID, *approved.ApprovedBy)

	_, err = setup.DB.Exec(ctx, `DELETE FROM payroll_line_items WHERE run_id = $1`, run.ID)
	assert.Error(t, err, "line items of an approved run must be frozen")

	assert.ErrorIs(t, repo.DeleteRun(ctx, companyID, run.ID), payroll.ErrRunStatusConflict)
	assert.ErrorIs(t, repo.DeleteRun(ctx, companyID, uuid.NewString()), payroll.ErrRunNotFound)

	require.NoError(t, repo.RecordAudit(ctx, payroll.AuditEvent{
		CompanyID: companyID,
		ActorID:   &actorID,
		Action:    payroll.AuditRunApproved,
		RunID:     run.ID,
	}))
}

func TestPayrollRepository_TotalsKeepFractionalAmounts(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	companyID := uuid.NewString()

	run, err := repo.CreateRun(ctx, newRun(companyID))
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, uuid.NewString())
	require.NoError(t, err)

	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	result := sampleResult(run)
	item := &result.LineItems[0]
	item.BaseSalary = d("100000.50")
	item.OvertimePay = d("3981.25")
	item.GrossSalary = d("103981.75")
	item.TaxableGross = d("103981.75")
	item.ContributionA = d("6551.35")
	item.TotalDeductions = d("12188.35")
	item.NetSalary = d("91793.40")
	require.NoError(t, item.Reconcile())
	result = payroll.NewCalculationResult(result.BracketVersion, result.LineItems, result.Errors)

	committed, err := repo.CommitCalculation(ctx, companyID, run.ID, payroll.RunStatusCalculating, payroll.RunStatusCalculated, result)
	require.NoError(t, err)

	items, err := repo.ListLineItems(ctx, companyID, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NotNil(t, committed.TotalGross)
	require.NotNil(t, committed.TotalDeductions)
	require.NotNil(t, committed.TotalNet)
	assert.True(t, committed.TotalGross.Equal(items[0].GrossSalary), "total gross %s", committed.TotalGross)
	assert.True(t, committed.TotalDeductions.Equal(items[0].TotalDeductions), "total deductions %s", committed.TotalDeductions)
	assert.True(t, committed.TotalNet.Equal(d("91793.40")), "total net %s", committed.TotalNet)
}

func TestPayrollRepository_FailCalculationDropsResults(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	companyID := uuid.NewString()
	actorID := uuid.NewString()

	run, err := repo.CreateRun(ctx, newRun(companyID))
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, actorID)
	require.NoError(t, err)
	_, err = repo.CommitCalculation(ctx, companyID, run.ID, payroll.RunStatusCalculating, payroll.RunStatusCalculated, sampleResult(run))
	require.NoError(t, err)

	recalculating, err := repo.UpdateStatus(ctx, companyID, run.ID, payroll.RunStatusCalculated, payroll.RunStatusCalculating, actorID)
	require.NoError(t, err)
	assert.Nil(t, recalculating.TotalNet)

	failed, err := repo.FailCalculation(ctx, companyID, run.ID, payroll.RunStatusCalculating, payroll.RunStatusFailed, "roster unavailable")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "roster unavailable", *failed.FailureReason)

	items, err := repo.ListLineItems(ctx, companyID, run.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPayrollRepository_FailStaleCalculations(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	companyID := uuid.NewString()
	actorID := uuid.NewString()

	stale, err := repo.CreateRun(ctx, newRun(companyID))
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, companyID, stale.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, actorID)
	require.NoError(t, err)
	_, err = setup.DB.Exec(ctx, `UPDATE payroll_runs SET calculation_started_at = now() - interval '2 hours' WHERE id = $1`, stale.ID)
	require.NoError(t, err)

	fresh, err := repo.CreateRun(ctx, newRun(companyID))
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, companyID, fresh.ID, payroll.RunStatusDraft, payroll.RunStatusCalculating, actorID)
	require.NoError(t, err)

	failed, err := repo.FailStaleCalculations(ctx, time.Now().Add(-time.Hour), payroll.RunStatusCalculating, payroll.RunStatusFailed, "calculation timed out")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, stale.ID, failed[0].ID)

	got, err := repo.GetRun(ctx, companyID, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusCalculating, got.Status)
}

func TestPayrollRepository_ListRuns(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	companyID := uuid.NewString()

	for i := 0; i < 3; i++ {
		r := newRun(companyID)
		r.PeriodStart = date(2025, time.Month(i+1), 1)
		r.PeriodEnd = r.PeriodStart.AddDate(0, 1, -1)
		r.PayDate = r.PeriodEnd
		_, err := repo.CreateRun(ctx, r)
		require.NoError(t, err)
	}
	_, err := repo.CreateRun(ctx, newRun(uuid.NewString()))
	require.NoError(t, err)

	runs, total, err := repo.ListRuns(ctx, companyID, payroll.RunFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 2)
	assert.Equal(t, date(2025, 3, 1), runs[0].PeriodStart.UTC())

	status := string(payroll.RunStatusPaid)
	runs, total, err = repo.ListRuns(ctx, companyID, payroll.RunFilter{Status: &status})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, runs)
}
