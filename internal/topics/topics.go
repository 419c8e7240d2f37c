package topics

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/retry"
)

// ErrNoUniqueTopic is returned when the diversity retry cap is exhausted
// without finding a topic unique against the batch, the index and recent
// history. It halts the whole batch rather than looping forever.
var ErrNoUniqueTopic = errors.New("could not find a unique topic within the attempt cap")

// History is the subset of the generation-history store the generator needs.
type History interface {
	RecentSignatures(window time.Duration) (map[string]bool, error)
	RecentCategories(n int) ([]string, error)
	RecordTopic(topic *core.Topic, signature string) error
}

// Existing holds identity sets from the persisted index, used to reject
// topics that collide with already-published posts.
type Existing struct {
	Slugs  map[string]bool
	Titles map[string]bool
}

// ExistingFromIndex builds the identity sets from an index manifest.
func ExistingFromIndex(manifest *core.IndexManifest) *Existing {
	existing := &Existing{
		Slugs:  make(map[string]bool),
		Titles: make(map[string]bool),
	}
	if manifest == nil {
		return existing
	}
	for _, post := range manifest.Posts {
		existing.Slugs[post.Slug] = true
		existing.Titles[strings.ToLower(post.Title)] = true
	}
	return existing
}

// Batch tracks the topics produced in the current run so a single batch
// never yields duplicate slugs, titles or keyword signatures.
type Batch struct {
	slugs      map[string]bool
	titles     map[string]bool
	signatures map[string]bool
}

// NewBatch creates an empty batch tracker.
func NewBatch() *Batch {
	return &Batch{
		slugs:      make(map[string]bool),
		titles:     make(map[string]bool),
		signatures: make(map[string]bool),
	}
}

// Add records a generated topic in the batch.
func (b *Batch) Add(topic *core.Topic, signature string) {
	b.slugs[topic.Slug] = true
	b.titles[strings.ToLower(topic.Title)] = true
	b.signatures[signature] = true
}

// Generator selects keywords and categories and produces unique topics.
type Generator struct {
	pool      *keywords.Pool
	llmClient llm.TextGenerator
	history   History
	rng       *rand.Rand
	cfg       config.Topics
}

// NewGenerator creates a topic generator. history may be nil, in which case
// only batch and index uniqueness are enforced.
func NewGenerator(pool *keywords.Pool, llmClient llm.TextGenerator, history History, rng *rand.Rand, cfg config.Topics) *Generator {
	return &Generator{
		pool:      pool,
		llmClient: llmClient,
		history:   history,
		rng:       rng,
		cfg:       cfg,
	}
}

// GenerateTopic produces one topic that is unique against the current batch,
// the persisted index and recent keyword-signature history. AI failures are
// non-fatal (deterministic fallbacks take over); only exhausting the attempt
// cap returns an error.
func (g *Generator) GenerateTopic(ctx context.Context, snapshot *core.TrendSnapshot, excluded []string, recentCategories []string, existing *Existing, batch *Batch) (*core.Topic, error) {
	excludedSet := make(map[string]bool, len(excluded))
	for _, kw := range excluded {
		excludedSet[strings.ToLower(kw)] = true
	}

	recentSignatures := make(map[string]bool)
	if g.history != nil {
		retention := config.ParseDuration(g.cfg.HistoryRetention, 30*24*time.Hour)
		sigs, err := g.history.RecentSignatures(retention)
		if err != nil {
			logger.Warn("Could not load recent topic signatures", "error", err.Error())
		} else {
			recentSignatures = sigs
		}
	}

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		category := g.pool.RandomCategory(g.rng, recentCategories)
		kws := g.selectKeywords(snapshot, excludedSet, category)
		signature := Signature(kws)

		if batch.signatures[signature] || recentSignatures[signature] {
			continue
		}

		title := g.generateTitle(ctx, kws, category)
		slug := g.generateSlug(ctx, title)

		if batch.slugs[slug] || existing.Slugs[slug] {
			continue
		}
		if batch.titles[strings.ToLower(title)] || existing.Titles[strings.ToLower(title)] {
			continue
		}

		topic := &core.Topic{
			Title:    title,
			Slug:     slug,
			Category: category,
			Keywords: kws,
			Tags:     tagsFrom(kws, category),
		}

		batch.Add(topic, signature)
		if g.history != nil {
			if err := g.history.RecordTopic(topic, signature); err != nil {
				logger.Warn("Could not record topic in history", "slug", slug, "error", err.Error())
			}
		}

		logger.Info("Topic generated", "slug", slug, "category", category, "attempt", attempt)
		return topic, nil
	}

	return nil, fmt.Errorf("%w (cap=%d)", ErrNoUniqueTopic, g.cfg.MaxAttempts)
}

// selectKeywords picks the keyword basis for a topic: a long-tail phrase,
// a trending/semantic pair, or a static pool keyword, in that preference
// order with configured probabilities.
func (g *Generator) selectKeywords(snapshot *core.TrendSnapshot, excluded map[string]bool, category string) []string {
	roll := g.rng.Float64()

	if snapshot != nil {
		if roll < g.cfg.LongTailChance {
			if phrase := pickUnexcluded(g.rng, snapshot.KeywordIdeas, excluded); phrase != "" {
				return []string{phrase}
			}
		}
		if roll < g.cfg.LongTailChance+g.cfg.TrendingChance {
			trending := pickUnexcluded(g.rng, snapshot.TrendingKeywords, excluded)
			semantic := pickUnexcluded(g.rng, snapshot.SemanticSuggestions, excluded)
			if trending != "" && semantic != "" && trending != semantic {
				return []string{trending, semantic}
			}
			if trending != "" {
				return []string{trending}
			}
		}
	}

	if catKws := g.pool.KeywordsFor(category); len(catKws) > 0 {
		if kw := pickUnexcluded(g.rng, catKws, excluded); kw != "" {
			return []string{kw}
		}
	}
	return []string{g.pool.RandomKeyword(g.rng, excluded)}
}

func pickUnexcluded(rng *rand.Rand, candidates []string, excluded map[string]bool) string {
	usable := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" && !excluded[strings.ToLower(c)] {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return ""
	}
	return usable[rng.Intn(len(usable))]
}

// generateTitle asks the LLM for a title and degrades to a deterministic
// template on failure.
func (g *Generator) generateTitle(ctx context.Context, kws []string, category string) string {
	prompt := fmt.Sprintf(`Write one compelling blog post title about "%s" for the %s category.
Constraints: 50-70 characters, no quotes, no colons at the start, title case.
Return only the title, nothing else.`, strings.Join(kws, " and "), category)

	policy := retry.Policy{MaxAttempts: 2, Backoff: retry.Fixed(2 * time.Second)}

	return retry.WithFallback(ctx, policy,
		func(ctx context.Context) (string, error) {
			response, err := g.llmClient.GenerateWithOptions(ctx, prompt, llm.Options{MaxTokens: 256, Temperature: 0.9})
			if err != nil {
				return "", err
			}
			title := cleanTitle(response)
			if len(title) < 15 {
				return "", fmt.Errorf("title too short: %q", title)
			}
			return title, nil
		},
		func() string {
			return FallbackTitle(kws, category)
		})
}

// generateSlug asks the LLM to slugify the title and falls back to the
// rule-based slugifier when the call fails or the output looks invalid.
func (g *Generator) generateSlug(ctx context.Context, title string) string {
	prompt := fmt.Sprintf(`Convert this blog title to a URL slug: "%s"
Rules: lowercase, words separated by hyphens, only letters, digits and hyphens, max 60 characters.
Return only the slug, nothing else.`, title)

	policy := retry.Policy{MaxAttempts: 2, Backoff: retry.Fixed(2 * time.Second)}

	return retry.WithFallback(ctx, policy,
		func(ctx context.Context) (string, error) {
			response, err := g.llmClient.GenerateWithOptions(ctx, prompt, llm.Options{MaxTokens: 128, Temperature: 0.2})
			if err != nil {
				return "", err
			}
			slug := strings.TrimSpace(strings.Trim(response, "`\" \n"))
			if !ValidSlug(slug) {
				return "", fmt.Errorf("model returned invalid slug: %q", slug)
			}
			return slug, nil
		},
		func() string {
			return Slugify(title)
		})
}

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// ValidSlug reports whether an AI-produced slug is acceptable: matching
// [a-z0-9-]+, no leading/trailing hyphen, at least 8 characters and at least
// one hyphen separator. Anything else is replaced by the fallback slugifier.
func ValidSlug(slug string) bool {
	if len(slug) < 8 {
		return false
	}
	if !slugPattern.MatchString(slug) {
		return false
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return false
	}
	return strings.Contains(slug, "-")
}

// Slugify converts a title to a URL slug deterministically: lowercase,
// non-alphanumerics to hyphens, hyphen runs collapsed, edges trimmed.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = repeatedHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
		slug = strings.Trim(slug, "-")
	}
	return slug
}

// Signature derives the keyword-combination identity used for diversity
// checks: keywords lowercased, sorted and joined.
func Signature(kws []string) string {
	normalized := make([]string, 0, len(kws))
	for _, kw := range kws {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(kw)))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "+")
}

// FallbackTitle builds a deterministic title from the keywords and category.
func FallbackTitle(kws []string, category string) string {
	subject := titleCase(strings.Join(kws, " and "))
	return fmt.Sprintf("%s: A Practical %s Guide", subject, category)
}

func cleanTitle(response string) string {
	title := strings.TrimSpace(response)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	title = strings.Trim(title, `"'`)
	if len(title) > 90 {
		title = strings.TrimSpace(title[:90])
	}
	return title
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func tagsFrom(kws []string, category string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	for _, kw := range kws {
		// Long-tail phrases are tagged by their significant words.
		for _, word := range strings.Fields(kw) {
			if len(word) > 3 {
				add(word)
			}
		}
	}
	add(category)
	return tags
}
