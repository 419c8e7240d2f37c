package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/retry"
)

// Discoverer combines the static keyword pool with AI-suggested long-tail and
// semantic variants into a trend snapshot.
type Discoverer struct {
	pool           *keywords.Pool
	llmClient      llm.TextGenerator
	rng            *rand.Rand
	maxSuggestions int
}

// NewDiscoverer creates a trend discoverer.
func NewDiscoverer(pool *keywords.Pool, llmClient llm.TextGenerator, rng *rand.Rand, maxSuggestions int) *Discoverer {
	if maxSuggestions <= 0 {
		maxSuggestions = 10
	}
	return &Discoverer{
		pool:           pool,
		llmClient:      llmClient,
		rng:            rng,
		maxSuggestions: maxSuggestions,
	}
}

// Discover builds a fresh trend snapshot. AI failures are non-fatal: the
// snapshot degrades to static-pool signals only.
func (d *Discoverer) Discover(ctx context.Context) *core.TrendSnapshot {
	snapshot := &core.TrendSnapshot{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}

	// Seed trending keywords from a sample of the static pool.
	pool := d.pool.Keywords()
	sample := make([]string, len(pool))
	copy(sample, pool)
	d.rng.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})
	if len(sample) > d.maxSuggestions {
		sample = sample[:d.maxSuggestions]
	}
	snapshot.TrendingKeywords = sample

	policy := retry.Policy{MaxAttempts: 2, Backoff: retry.Fixed(2 * time.Second)}

	snapshot.KeywordIdeas = retry.WithFallback(ctx, policy,
		func(ctx context.Context) ([]string, error) {
			return d.suggest(ctx, longTailPrompt(sample, d.maxSuggestions))
		},
		func() []string {
			logger.Warn("Long-tail suggestion failed, using static fallback")
			return d.fallbackLongTail(sample)
		})

	snapshot.SemanticSuggestions = retry.WithFallback(ctx, policy,
		func(ctx context.Context) ([]string, error) {
			return d.suggest(ctx, semanticPrompt(sample, d.maxSuggestions))
		},
		func() []string {
			logger.Warn("Semantic suggestion failed, using static fallback")
			return nil
		})

	snapshot.RisingQueries = retry.WithFallback(ctx, policy,
		func(ctx context.Context) ([]string, error) {
			return d.suggest(ctx, risingQueryPrompt(sample, d.maxSuggestions))
		},
		func() []string {
			return nil
		})

	logger.Info("Trend snapshot built",
		"trending", len(snapshot.TrendingKeywords),
		"long_tail", len(snapshot.KeywordIdeas),
		"semantic", len(snapshot.SemanticSuggestions),
		"rising", len(snapshot.RisingQueries))

	return snapshot
}

// suggest asks the LLM for a newline-separated keyword list and parses it.
func (d *Discoverer) suggest(ctx context.Context, prompt string) ([]string, error) {
	response, err := d.llmClient.GenerateWithOptions(ctx, prompt, llm.Options{MaxTokens: 1024, Temperature: 0.9})
	if err != nil {
		return nil, err
	}

	var suggestions []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		line = strings.Trim(line, `"`)
		if line == "" || strings.ContainsAny(line, ":{}") {
			continue
		}
		suggestions = append(suggestions, strings.ToLower(line))
		if len(suggestions) >= d.maxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, fmt.Errorf("no usable suggestions in response")
	}
	return suggestions, nil
}

// fallbackLongTail derives long-tail phrases deterministically from the pool.
func (d *Discoverer) fallbackLongTail(seeds []string) []string {
	templates := []string{"how to %s", "%s for beginners", "best %s tips", "%s benefits explained"}
	var phrases []string
	for i, seed := range seeds {
		phrases = append(phrases, fmt.Sprintf(templates[i%len(templates)], seed))
		if len(phrases) >= d.maxSuggestions {
			break
		}
	}
	return phrases
}

func longTailPrompt(seeds []string, n int) string {
	return fmt.Sprintf(`Given these topic keywords: %s

Suggest %d long-tail keyword phrases (4-7 words each) that people actually search for.
Return one phrase per line, no numbering, no commentary.`, strings.Join(seeds, ", "), n)
}

func semanticPrompt(seeds []string, n int) string {
	return fmt.Sprintf(`Given these topic keywords: %s

Suggest %d semantically related keywords covering adjacent subtopics.
Return one keyword per line, no numbering, no commentary.`, strings.Join(seeds, ", "), n)
}

func risingQueryPrompt(seeds []string, n int) string {
	return fmt.Sprintf(`Given these topic keywords: %s

Suggest %d search queries that are likely rising in popularity this year.
Return one query per line, no numbering, no commentary.`, strings.Join(seeds, ", "), n)
}

// SaveSnapshot writes the snapshot file, replacing any previous one.
func SaveSnapshot(path string, snapshot *core.TrendSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved snapshot. A missing or unreadable
// snapshot is reported so the caller can fall back to the static pool.
func LoadSnapshot(path string) (*core.TrendSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot core.TrendSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot file %s: %w", path, err)
	}
	return &snapshot, nil
}
