package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/pipeline"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd() *cobra.Command {
	var count int
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of blog posts",
		Long: `Runs the full pipeline: trend discovery, topic selection, content and
image generation, video embedding, then an index/sitemap/manifest rebuild.
Posts are processed one at a time; a failed post is skipped, and the command
exits non-zero only when every post in the batch failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			runner, cleanup, err := buildRunner(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if cmd.Flags().Changed("delay") {
				runner.ItemDelay = delay
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := runner.Run(ctx, count)
			if result != nil {
				logger.Info("Batch finished",
					"requested", result.Requested,
					"succeeded", result.Succeeded,
					"failed", result.Failed)
				for _, slug := range result.Slugs {
					fmt.Printf("generated: %s\n", slug)
				}
			}
			if err != nil {
				if errors.Is(err, pipeline.ErrAllFailed) {
					return fmt.Errorf("batch of %d produced no posts", count)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of posts to generate")
	cmd.Flags().DurationVar(&delay, "delay", 15*time.Second, "delay between posts (API rate limiting)")

	return cmd
}
