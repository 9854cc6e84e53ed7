// Package schedule runs named maintenance tasks on fixed intervals.
//
// Usage:
//
//	s := schedule.New()
//	s.Every(time.Hour, "tokens.purge", purgeTokens)
//	go s.Run(ctx) // blocks until ctx is cancelled
//
// A task never overlaps with itself: if the previous run is still going when
// it falls due again, that tick is skipped.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	task     Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Entry describes a registered task.
type Entry struct {
	Name     string
	Interval time.Duration
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second, now: time.Now}
}

// Every registers task to run every interval, the first time on the first
// tick after Run starts.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) {
	if interval <= 0 {
		panic(fmt.Sprintf("schedule: task %q needs a positive interval", name))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, &entry{name: name, interval: interval, task: task})
}

// Entries lists registered tasks by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{Name: e.name, Interval: e.interval})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run dispatches due tasks until ctx is cancelled, then waits for running
// tasks to return.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	logger.Info("schedule: scheduler started", "tasks", len(s.Entries()))
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case <-ticker.C:
			s.dispatchDue(ctx, s.now())
		}
	}
}

// RunAll runs every task once, in name order, and returns the first error.
// Used by the CLI when an external cron drives the schedule.
func (s *Scheduler) RunAll(ctx context.Context) error {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()
	sort.Slice(current, func(i, j int) bool { return current[i].name < current[j].name })

	for _, e := range current {
		if err := s.execute(ctx, e); err != nil {
			return fmt.Errorf("schedule: %s: %w", e.name, err)
		}
	}
	return nil
}

func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		e.mu.Lock()
		due := e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
		if !due {
			e.mu.Unlock()
			continue
		}
		if e.running {
			e.mu.Unlock()
			logger.Warn("schedule: skipping overlapping task", "task", e.name)
			continue
		}
		e.running = true
		e.lastRun = now
		e.mu.Unlock()

		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			defer func() {
				e.mu.Lock()
				e.running = false
				e.mu.Unlock()
			}()
			_ = s.execute(ctx, e)
		}(e)
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	log := logger.WithCtx(ctx)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		result := "ok"
		if err != nil {
			result = "error"
			log.Error("schedule: task failed", "task", e.name, "error", err)
		} else {
			log.Debug("schedule: task done", "task", e.name, "duration_ms", time.Since(start).Milliseconds())
		}
		metrics.ScheduledRuns.WithLabelValues(e.name, result).Inc()
	}()
	return e.task(ctx)
}
