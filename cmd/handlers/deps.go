package handlers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/content"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/images"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/index"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/pipeline"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/store"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/topics"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/trends"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/video"
)

// buildRunner wires the full pipeline from configuration. The returned
// cleanup function closes the history store.
func buildRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	pool, err := keywords.Load(cfg.App.KeywordsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("keyword source unavailable: %w", err)
	}

	llmClient, err := llm.NewClient(cfg.AI)
	if err != nil {
		return nil, nil, err
	}

	history, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = history.Close() }

	retention := config.ParseDuration(cfg.Topics.HistoryRetention, 30*24*time.Hour)
	if pruned, err := history.Prune(retention); err != nil {
		logger.Warn("History prune failed", "error", err.Error())
	} else if pruned > 0 {
		logger.Debug("History pruned", "removed", pruned)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	discoverer := trends.NewDiscoverer(pool, llmClient, rng, cfg.Trends.MaxSuggestions)
	topicsGen := topics.NewGenerator(pool, llmClient, history, rng, cfg.Topics)

	var searcher video.Searcher
	if cfg.Video.APIKey != "" {
		searcher = video.NewClient(cfg.Video)
	} else {
		logger.Warn("No video API key configured, posts will not embed videos")
	}

	weights := video.ScoringWeights{
		ExactMatch: cfg.Video.ExactMatchWeight,
		QueryWord:  cfg.Video.QueryWordWeight,
	}
	contentGen := content.NewGenerator(llmClient, searcher, cfg.Content, weights)

	var imageSvc *images.Service
	if cfg.Images.APIKey != "" {
		imageSvc = images.NewService(images.NewClient(cfg.Images), rng, cfg.Images)
	} else {
		logger.Warn("No image API key configured, posts will have no images")
	}

	builder := index.NewBuilder(cfg.App.ContentDir, cfg.Index, cfg.Content.PreviewLength)

	return pipeline.NewRunner(cfg, discoverer, topicsGen, contentGen, imageSvc, builder, history), cleanup, nil
}
