package keywords

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
)

// Pool holds the static keyword lists read from disk at startup. It is
// constructed once and passed by reference into the pipeline stages; a load
// failure is fatal for the whole run.
type Pool struct {
	keywords   []string
	categories map[string][]string
}

// Load reads keywords.json (a flat list) and categories.json (a category to
// keyword-list map) from dir.
func Load(dir string) (*Pool, error) {
	var kws []string
	if err := readJSON(filepath.Join(dir, "keywords.json"), &kws); err != nil {
		return nil, fmt.Errorf("failed to load keyword list: %w", err)
	}

	var cats map[string][]string
	if err := readJSON(filepath.Join(dir, "categories.json"), &cats); err != nil {
		return nil, fmt.Errorf("failed to load category keywords: %w", err)
	}

	if len(kws) == 0 {
		return nil, fmt.Errorf("keyword list in %s is empty", dir)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("category map in %s is empty", dir)
	}

	return &Pool{keywords: kws, categories: cats}, nil
}

// NewPool builds a pool directly from in-memory lists. Intended for tests.
func NewPool(kws []string, cats map[string][]string) *Pool {
	return &Pool{keywords: kws, categories: cats}
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// Keywords returns the full static keyword list.
func (p *Pool) Keywords() []string {
	return p.keywords
}

// Categories returns the category names in a stable order.
func (p *Pool) Categories() []string {
	names := make([]string, 0, len(p.categories))
	for name := range p.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeywordsFor returns the keywords configured for a category, or nil.
func (p *Pool) KeywordsFor(category string) []string {
	return p.categories[category]
}

// RandomKeyword picks a keyword uniformly, skipping any in excluded.
func (p *Pool) RandomKeyword(rng *rand.Rand, excluded map[string]bool) string {
	candidates := make([]string, 0, len(p.keywords))
	for _, kw := range p.keywords {
		if !excluded[kw] {
			candidates = append(candidates, kw)
		}
	}
	if len(candidates) == 0 {
		candidates = p.keywords
	}
	return candidates[rng.Intn(len(candidates))]
}

// RandomCategory picks a category uniformly, preferring those not in recent.
func (p *Pool) RandomCategory(rng *rand.Rand, recent []string) string {
	recentSet := make(map[string]bool, len(recent))
	for _, c := range recent {
		recentSet[c] = true
	}

	names := p.Categories()
	candidates := make([]string, 0, len(names))
	for _, name := range names {
		if !recentSet[name] {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		candidates = names
	}
	return candidates[rng.Intn(len(candidates))]
}
