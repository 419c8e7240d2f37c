package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

// Job is a scheduled task.
type Job func(ctx context.Context) error

// Scheduler runs the generation batch on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	timezone *time.Location
}

// New creates a scheduler in the given timezone.
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		timezone: loc,
	}, nil
}

// AddJob registers a job under a cron schedule like "0 7 * * *".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		logger.Info("Scheduled job starting", "job", name)
		start := time.Now()

		if err := job(ctx); err != nil {
			logger.Error("Scheduled job failed", err, "job", name)
			return
		}
		logger.Info("Scheduled job completed", "job", name, "elapsed", time.Since(start).String())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	logger.Info("Job scheduled", "job", name, "schedule", schedule, "timezone", s.timezone.String())
	return nil
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
