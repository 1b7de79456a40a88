package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
)

// StaleCalculationReason is recorded on runs the reaper fails.
const StaleCalculationReason = "calculation abandoned"

type staleRunStore interface {
	FailStaleCalculations(ctx context.Context, startedBefore time.Time, from, to payroll.RunStatus, reason string) ([]payroll.Run, error)
	RecordAudit(ctx context.Context, event payroll.AuditEvent) error
}

type publisher interface {
	Publish(topic string, event sse.Event)
}

type PayrollJobs struct {
	payrollRepo staleRunStore
	hub         publisher
	staleAfter  time.Duration
	now         func() time.Time
}

func NewPayrollJobs(payrollRepo staleRunStore, hub publisher, staleAfter time.Duration) *PayrollJobs {
	return &PayrollJobs{
		payrollRepo: payrollRepo,
		hub:         hub,
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("fail_stale_calculations", interval, 0, j.FailStaleCalculations)
}

// FailStaleCalculations releases runs left in calculating by a process that
// died mid-run, so they can be calculated again.
func (j *PayrollJobs) FailStaleCalculations(ctx context.Context) error {
	cutoff := j.now().Add(-j.staleAfter)
	to, err := payroll.Transition(payroll.RunStatusCalculating, payroll.ActionFail)
	if err != nil {
		return err
	}

	runs, err := j.payrollRepo.FailStaleCalculations(ctx, cutoff, payroll.RunStatusCalculating, to, StaleCalculationReason)
	if err != nil {
		return fmt.Errorf("failed to fail stale calculations: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}

	for _, run := range runs {
		if j.hub != nil {
			j.hub.Publish(run.ID, sse.Event{
				Event: payroll.EventFailed,
				Data:  map[string]string{"run_id": run.ID, "reason": StaleCalculationReason},
			})
		}

		err := j.payrollRepo.RecordAudit(ctx, payroll.AuditEvent{
			CompanyID: run.CompanyID,
			Action:    payroll.AuditRunFailed,
			RunID:     run.ID,
			Details:   map[string]any{"reason": StaleCalculationReason, "stale_after": j.staleAfter.String()},
		})
		if err != nil {
			slog.Warn("Cron: failed to record audit for stale run", "run_id", run.ID, "error", err)
		}
	}

	slog.Info("Cron: failed stale payroll calculations", "count", len(runs), "cutoff", cutoff)
	return nil
}
