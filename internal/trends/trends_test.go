package trends

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/keywords"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.GenerateWithOptions(ctx, prompt, llm.Options{})
}

func (s *stubLLM) GenerateWithOptions(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testPool() *keywords.Pool {
	return keywords.NewPool(
		[]string{"sugar cravings", "meal prep", "sleep hygiene", "running form"},
		map[string][]string{"Nutrition": {"sugar cravings", "meal prep"}},
	)
}

func TestDiscoverParsesSuggestionLists(t *testing.T) {
	stub := &stubLLM{response: "1. Sugar Detox Plans\n- \"meal prep on a budget\"\n\n* sleep routines for adults"}
	d := NewDiscoverer(testPool(), stub, rand.New(rand.NewSource(1)), 10)

	snapshot := d.Discover(context.Background())
	if snapshot.ID == "" {
		t.Error("snapshot missing ID")
	}
	if len(snapshot.TrendingKeywords) == 0 {
		t.Error("no trending keywords sampled from the pool")
	}
	if len(snapshot.KeywordIdeas) != 3 {
		t.Fatalf("keyword ideas = %v, want 3 parsed lines", snapshot.KeywordIdeas)
	}
	if snapshot.KeywordIdeas[0] != "sugar detox plans" {
		t.Errorf("list prefix or case not normalized: %q", snapshot.KeywordIdeas[0])
	}
	if snapshot.KeywordIdeas[1] != "meal prep on a budget" {
		t.Errorf("quotes not stripped: %q", snapshot.KeywordIdeas[1])
	}
}

func TestDiscoverCapsSuggestions(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "suggestion number %d\n", i)
	}
	stub := &stubLLM{response: sb.String()}
	d := NewDiscoverer(testPool(), stub, rand.New(rand.NewSource(1)), 5)

	snapshot := d.Discover(context.Background())
	if len(snapshot.KeywordIdeas) > 5 {
		t.Errorf("keyword ideas = %d, want <= 5", len(snapshot.KeywordIdeas))
	}
	if len(snapshot.TrendingKeywords) > 5 {
		t.Errorf("trending keywords = %d, want <= 5", len(snapshot.TrendingKeywords))
	}
}

func TestDiscoverDegradesWhenAIUnavailable(t *testing.T) {
	stub := &stubLLM{err: fmt.Errorf("api unreachable")}
	d := NewDiscoverer(testPool(), stub, rand.New(rand.NewSource(1)), 10)

	snapshot := d.Discover(context.Background())
	if snapshot == nil {
		t.Fatal("Discover must never return nil")
	}
	if len(snapshot.TrendingKeywords) == 0 {
		t.Error("static trending keywords missing")
	}
	if len(snapshot.KeywordIdeas) == 0 {
		t.Error("long-tail fallback missing")
	}
	for _, phrase := range snapshot.KeywordIdeas {
		if !strings.Contains(phrase, " ") {
			t.Errorf("fallback phrase not long-tail shaped: %q", phrase)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "trends.json")
	snapshot := &core.TrendSnapshot{
		ID:               "snap-1",
		TrendingKeywords: []string{"sugar cravings"},
		KeywordIdeas:     []string{"how to stop sugar cravings"},
	}

	if err := SaveSnapshot(path, snapshot); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.ID != "snap-1" || len(loaded.KeywordIdeas) != 1 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
