package handlers

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/pipeline"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/scheduler"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the generation batch on a cron schedule",
		Long: `Starts a long-running process that executes the generation batch on the
configured cron schedule (scheduler.cron, default daily at 07:00).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			runner, cleanup, err := buildRunner(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			sched, err := scheduler.New(cfg.Scheduler.Timezone)
			if err != nil {
				return err
			}

			job := func(ctx context.Context) error {
				result, err := runner.Run(ctx, cfg.Scheduler.BatchSize)
				if err != nil && !errors.Is(err, pipeline.ErrAllFailed) {
					return err
				}
				if result != nil {
					logger.Info("Scheduled batch finished",
						"succeeded", result.Succeeded, "failed", result.Failed)
				}
				return err
			}

			if err := sched.AddJob("generate-batch", cfg.Scheduler.Cron, job); err != nil {
				return err
			}

			sched.Start()
			defer sched.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("Scheduler stopping")
			return nil
		},
	}
}
