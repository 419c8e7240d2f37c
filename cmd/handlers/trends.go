package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/trends"
)

// NewTrendsCmd creates the trends command.
func NewTrendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trends",
		Short: "Refresh the trending-keywords snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			pool, err := keywords.Load(cfg.App.KeywordsDir)
			if err != nil {
				return fmt.Errorf("keyword source unavailable: %w", err)
			}

			llmClient, err := llm.NewClient(cfg.AI)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			discoverer := trends.NewDiscoverer(pool, llmClient, rng, cfg.Trends.MaxSuggestions)

			snapshot := discoverer.Discover(context.Background())
			path := filepath.Join(cfg.App.DataDir, cfg.Trends.SnapshotFile)
			if err := trends.SaveSnapshot(path, snapshot); err != nil {
				return err
			}

			fmt.Printf("snapshot written to %s (%d trending, %d long-tail, %d semantic)\n",
				path, len(snapshot.TrendingKeywords), len(snapshot.KeywordIdeas), len(snapshot.SemanticSuggestions))
			return nil
		},
	}
}
