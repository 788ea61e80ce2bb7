package clock

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often the dashboard re-evaluates clocks and revalidates match data.
const DefaultInterval = 10 * time.Second

// Job is invoked once per tick with the tick time.
type Job func(ctx context.Context, now time.Time) error

// Scheduler fires its jobs on a fixed interval. Jobs run one after another on the
// scheduler goroutine; a failing job is logged and does not stop the others.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	now      func() time.Time
}

func NewScheduler(interval time.Duration, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval, jobs: jobs, now: time.Now}
}

func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Run ticks until ctx is cancelled. The first tick happens immediately.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs every job once and returns the number that failed.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.now()
	failed := 0
	for i, job := range s.jobs {
		if ctx.Err() != nil {
			return failed
		}
		if err := job(ctx, now); err != nil {
			failed++
			slog.Warn("tick job failed", "job", i, "error", err)
		}
	}
	return failed
}
