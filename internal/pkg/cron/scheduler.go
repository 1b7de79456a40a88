package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context) error

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single execution. Zero means the interval, so a slow
	// execution never overlaps the next tick.
	Timeout time.Duration
	Fn      JobFunc
}

func (j Job) timeout() time.Duration {
	if j.Timeout > 0 {
		return j.Timeout
	}
	return j.Interval
}

// Scheduler runs each registered job on its own ticker.
type Scheduler struct {
	logger *slog.Logger
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new cron scheduler. A nil logger uses slog.Default.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger.With("component", "cron"),
		jobs:   make([]Job, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers fn to run every interval, bounded by timeout (zero for the interval).
func (s *Scheduler) AddJob(name string, interval, timeout time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Timeout:  timeout,
		Fn:       fn,
	})
	s.logger.Info("Cron job registered", "job", name, "interval", interval, "timeout", s.jobs[len(s.jobs)-1].timeout())
}

// Start begins running all scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	s.logger.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels in-flight executions and waits for every job loop to exit.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Cron scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start
	execution := 1
	_ = s.executeJob(s.ctx, job, execution)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Cron job stopping", "job", job.Name, "executions", execution)
			return
		case <-ticker.C:
			execution++
			_ = s.executeJob(s.ctx, job, execution)
		}
	}
}

// executeJob runs job once under its timeout. A panic is logged and returned
// as an error so it cannot take the scheduler down.
func (s *Scheduler) executeJob(parent context.Context, job Job, execution int) (err error) {
	logger := s.logger.With("job", job.Name, "execution", execution)
	ctx, cancel := context.WithTimeout(parent, job.timeout())
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron job %s panicked: %v", job.Name, r)
		}
		if err != nil {
			logger.Error("Cron job failed", "error", err, "duration", time.Since(start))
			return
		}
		logger.Debug("Cron job completed", "duration", time.Since(start))
	}()

	logger.Debug("Cron job starting")
	return job.Fn(ctx)
}

// RunOnce runs every job a single time, in registration order, and returns
// their failures joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := s.executeJob(ctx, job, 1); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
