package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStaleRunStore struct {
	runs   []payroll.Run
	err    error
	cutoff time.Time
	reason string
	audits []payroll.AuditEvent
	from   payroll.RunStatus
	to     payroll.RunStatus
}

func (f *fakeStaleRunStore) FailStaleCalculations(_ context.Context, startedBefore time.Time, from, to payroll.RunStatus, reason string) ([]payroll.Run, error) {
	f.cutoff, f.reason = startedBefore, reason
	f.from, f.to = from, to
	return f.runs, f.err
}

func (f *fakeStaleRunStore) RecordAudit(_ context.Context, event payroll.AuditEvent) error {
	f.audits = append(f.audits, event)
	return nil
}

func TestFailStaleCalculations(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStaleRunStore{runs: []payroll.Run{
		{ID: "run-1", CompanyID: "co-1", Status: payroll.RunStatusFailed},
		{ID: "run-2", CompanyID: "co-2", Status: payroll.RunStatusFailed},
	}}
	hub := sse.NewHub()
	events, cleanup := hub.Subscribe("run-1")
	defer cleanup()

	jobs := NewPayrollJobs(store, hub, 30*time.Minute)
	jobs.now = func() time.Time { return now }

	require.NoError(t, jobs.FailStaleCalculations(context.Background()))

	assert.Equal(t, now.Add(-30*time.Minute), store.cutoff)
	assert.Equal(t, StaleCalculationReason, store.reason)
	assert.Equal(t, payroll.RunStatusCalculating, store.from)
	assert.Equal(t, payroll.RunStatusFailed, store.to)

	require.Len(t, store.audits, 2)
	assert.Equal(t, payroll.AuditRunFailed, store.audits[0].Action)
	assert.Equal(t, "co-2", store.audits[1].CompanyID)
	assert.Nil(t, store.audits[0].ActorID)

	select {
	case e := <-events:
		assert.Equal(t, payroll.EventFailed, e.Event)
		assert.Equal(t, "run-1", e.Topic)
	default:
		t.Fatal("expected a failed event for run-1")
	}
}

func TestFailStaleCalculations_Nothing(t *testing.T) {
	store := &fakeStaleRunStore{}
	jobs := NewPayrollJobs(store, nil, time.Hour)

	require.NoError(t, jobs.FailStaleCalculations(context.Background()))
	assert.Empty(t, store.audits)
}

func TestFailStaleCalculations_RepositoryError(t *testing.T) {
	store := &fakeStaleRunStore{err: errors.New("connection refused")}
	jobs := NewPayrollJobs(store, nil, time.Hour)

	err := jobs.FailStaleCalculations(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestScheduler_RunOnce(t *testing.T) {
	store := &fakeStaleRunStore{runs: []payroll.Run{{ID: "run-1", CompanyID: "co-1"}}}
	scheduler := NewScheduler(nil)
	NewPayrollJobs(store, nil, time.Hour).RegisterJobs(scheduler, time.Minute)

	require.NoError(t, scheduler.RunOnce(context.Background()))

	assert.Len(t, store.audits, 1)
}
