// Package schedule runs recurring reference checks.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Task is a unit of scheduled work.
type Task func(ctx context.Context)

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler instance.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Every schedules task at a fixed interval, starting immediately. A run that
// is still in progress when the next one is due delays it. The returned ID
// identifies the job.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, task Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Executing scheduled job", slog.String("job", name))
			task(ctx)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}
	return job.ID().String(), nil
}

// Run starts the scheduler and blocks until ctx is done, then shuts it down.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
	<-ctx.Done()
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
