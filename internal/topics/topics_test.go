package topics

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
)

// stubLLM returns canned responses or an error.
type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.GenerateWithOptions(ctx, prompt, llm.Options{})
}

func (s *stubLLM) GenerateWithOptions(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// failingLLM always errors, forcing every fallback path.
type failingLLM struct{}

func (failingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("api unavailable")
}

func (failingLLM) GenerateWithOptions(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", fmt.Errorf("api unavailable")
}

func testPool() *keywords.Pool {
	return keywords.NewPool(
		[]string{"sugar cravings", "meal prep", "hydration", "protein intake", "sleep hygiene"},
		map[string][]string{
			"Nutrition": {"sugar cravings", "meal prep", "protein intake"},
			"Wellness":  {"hydration", "sleep hygiene"},
		},
	)
}

func testConfig() config.Topics {
	return config.Topics{
		MaxAttempts:      10,
		LongTailChance:   0.4,
		TrendingChance:   0.5,
		CategoryWindow:   3,
		HistoryRetention: "720h",
	}
}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

func TestSlugifyProperties(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"basic", "How to Beat Sugar Cravings", "how-to-beat-sugar-cravings"},
		{"punctuation", "Protein: The Complete Guide!", "protein-the-complete-guide"},
		{"unicode and symbols", "Café & Health — 10 Tips", "caf-health-10-tips"},
		{"leading trailing junk", "  ...Hello World...  ", "hello-world"},
		{"collapse hyphens", "a -- b --- c", "a-b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.title)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
			if !slugRe.MatchString(got) {
				t.Errorf("Slugify(%q) = %q does not match [a-z0-9-]+", tt.title, got)
			}
			if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
				t.Errorf("Slugify(%q) = %q has a leading or trailing hyphen", tt.title, got)
			}
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("keyword ", 20)
	got := Slugify(long)
	if len(got) > 60 {
		t.Errorf("expected slug capped at 60 chars, got %d: %q", len(got), got)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug has trailing hyphen: %q", got)
	}
}

func TestValidSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"how-to-beat-sugar-cravings", true},
		{"short", false},            // too short
		{"nohyphenhere", false},     // missing separator
		{"-leading-hyphen", false},  // edge hyphen
		{"trailing-hyphen-", false}, // edge hyphen
		{"Upper-Case-Slug", false},  // uppercase
		{"with spaces here", false}, // invalid chars
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidSlug(tt.slug); got != tt.valid {
			t.Errorf("ValidSlug(%q) = %v, want %v", tt.slug, got, tt.valid)
		}
	}
}

func TestGenerateTopicFallsBackOnAIFailure(t *testing.T) {
	gen := NewGenerator(testPool(), failingLLM{}, nil, rand.New(rand.NewSource(1)), testConfig())

	topic, err := gen.GenerateTopic(context.Background(), nil, nil, nil,
		ExistingFromIndex(nil), NewBatch())
	if err != nil {
		t.Fatalf("expected fallback generation to succeed, got %v", err)
	}
	if topic.Title == "" {
		t.Error("fallback topic has empty title")
	}
	if !ValidSlug(topic.Slug) && !slugRe.MatchString(topic.Slug) {
		t.Errorf("fallback slug %q is not a valid slug", topic.Slug)
	}
	if topic.Slug != Slugify(topic.Title) {
		t.Errorf("fallback slug %q does not match Slugify(title) = %q", topic.Slug, Slugify(topic.Title))
	}
}

func TestGenerateTopicRejectsInvalidAISlug(t *testing.T) {
	// The stub returns the same text for every call, so the slug response
	// is the title text, which fails slug validation and must be replaced
	// by the deterministic slugifier.
	stub := &stubLLM{response: "The Surprising Truth About Hydration Habits"}
	gen := NewGenerator(testPool(), stub, nil, rand.New(rand.NewSource(2)), testConfig())

	topic, err := gen.GenerateTopic(context.Background(), nil, nil, nil,
		ExistingFromIndex(nil), NewBatch())
	if err != nil {
		t.Fatalf("GenerateTopic failed: %v", err)
	}
	if !slugRe.MatchString(topic.Slug) {
		t.Errorf("slug %q not sanitized", topic.Slug)
	}
	if strings.Contains(topic.Slug, " ") {
		t.Errorf("slug %q contains spaces", topic.Slug)
	}
}

func TestBatchSlugsUniqueAgainstIndex(t *testing.T) {
	manifest := &core.IndexManifest{Posts: []core.Post{
		{Slug: "hydration-for-beginners", Title: "Hydration For Beginners"},
		{Slug: "meal-prep-basics", Title: "Meal Prep Basics"},
	}}
	existing := ExistingFromIndex(manifest)

	gen := NewGenerator(testPool(), failingLLM{}, nil, rand.New(rand.NewSource(3)), testConfig())
	batch := NewBatch()

	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		topic, err := gen.GenerateTopic(context.Background(), nil, nil, nil, existing, batch)
		if err != nil {
			// Diversity can legitimately run out with a 5-keyword pool.
			break
		}
		if seen[topic.Slug] {
			t.Errorf("duplicate slug within batch: %q", topic.Slug)
		}
		if existing.Slugs[topic.Slug] {
			t.Errorf("slug %q collides with persisted index", topic.Slug)
		}
		seen[topic.Slug] = true
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one topic to be generated")
	}
}

func TestGenerateTopicExhaustsAttemptCap(t *testing.T) {
	// A single-keyword pool forces the same signature every attempt after
	// the first, which must end in ErrNoUniqueTopic instead of looping.
	pool := keywords.NewPool([]string{"sugar"}, map[string][]string{"Nutrition": {"sugar"}})
	cfg := testConfig()
	cfg.MaxAttempts = 5

	gen := NewGenerator(pool, failingLLM{}, nil, rand.New(rand.NewSource(4)), cfg)
	batch := NewBatch()
	existing := ExistingFromIndex(nil)

	if _, err := gen.GenerateTopic(context.Background(), nil, nil, nil, existing, batch); err != nil {
		t.Fatalf("first topic should succeed: %v", err)
	}

	start := time.Now()
	_, err := gen.GenerateTopic(context.Background(), nil, nil, nil, existing, batch)
	if err == nil {
		t.Fatal("expected ErrNoUniqueTopic, got nil")
	}
	if !strings.Contains(err.Error(), "unique topic") {
		t.Errorf("unexpected error: %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("attempt cap did not terminate promptly")
	}
}

func TestSignatureOrderIndependent(t *testing.T) {
	a := Signature([]string{"Sugar", "hydration"})
	b := Signature([]string{"hydration", "sugar"})
	if a != b {
		t.Errorf("signatures differ by keyword order: %q vs %q", a, b)
	}
}

func TestSelectKeywordsPrefersLongTail(t *testing.T) {
	snapshot := &core.TrendSnapshot{
		KeywordIdeas:        []string{"how to stop sugar cravings naturally"},
		TrendingKeywords:    []string{"sugar"},
		SemanticSuggestions: []string{"glucose"},
	}
	cfg := testConfig()
	cfg.LongTailChance = 1.0 // force the long-tail branch

	gen := NewGenerator(testPool(), failingLLM{}, nil, rand.New(rand.NewSource(5)), cfg)
	kws := gen.selectKeywords(snapshot, map[string]bool{}, "Nutrition")
	if len(kws) != 1 || kws[0] != "how to stop sugar cravings naturally" {
		t.Errorf("expected the long-tail phrase, got %v", kws)
	}
}

func TestSelectKeywordsHonorsExclusions(t *testing.T) {
	gen := NewGenerator(testPool(), failingLLM{}, nil, rand.New(rand.NewSource(6)), testConfig())
	excluded := map[string]bool{
		"sugar cravings": true,
		"meal prep":      true,
	}
	for i := 0; i < 20; i++ {
		kws := gen.selectKeywords(nil, excluded, "Nutrition")
		for _, kw := range kws {
			if kw != "protein intake" {
				t.Fatalf("excluded keyword selected: %v", kws)
			}
		}
	}
}
