package payroll

import (
	"sync"
	"sync/atomic"
)

// progressTracker counts processed employees for runs calculating in this process.
type progressTracker struct {
	mu   sync.RWMutex
	runs map[string]*runProgress
}

type runProgress struct {
	total     int
	processed atomic.Int64
}

func newProgressTracker() *progressTracker {
	return &progressTracker{runs: make(map[string]*runProgress)}
}

func (t *progressTracker) start(runID string, total int) *runProgress {
	p := &runProgress{total: total}
	t.mu.Lock()
	t.runs[runID] = p
	t.mu.Unlock()
	return p
}

func (t *progressTracker) finish(runID string) {
	t.mu.Lock()
	delete(t.runs, runID)
	t.mu.Unlock()
}

func (t *progressTracker) get(runID string) (processed, total int, ok bool) {
	t.mu.RLock()
	p, ok := t.runs[runID]
	t.mu.RUnlock()
	if !ok {
		return 0, 0, false
	}
	return int(p.processed.Load()), p.total, true
}

// advance marks one more employee processed and returns the new count.
func (p *runProgress) advance() int {
	return int(p.processed.Add(1))
}

// reportEvery is how many employees pass between progress events.
func (p *runProgress) reportEvery() int {
	if step := p.total / 100; step > 1 {
		return step
	}
	return 1
}

func percent(processed, total int) int {
	if total == 0 {
		return 0
	}
	return processed * 100 / total
}
