package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
)

func testIndexConfig() config.Index {
	return config.Index{MaxRelated: 4, TopTags: 10}
}

func writePost(t *testing.T, contentDir string, post core.Post) {
	t.Helper()
	dir := filepath.Join(contentDir, post.PublishDate.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(post)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, post.Slug+".json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestRebuildRelatesSharedTagAcrossCategories(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, core.Post{
		Title: "Post A", Slug: "post-a", Category: "Nutrition",
		Tags: []string{"sugar", "health"}, PublishDate: day(0),
	})
	writePost(t, dir, core.Post{
		Title: "Post B", Slug: "post-b", Category: "Wellness",
		Tags: []string{"sugar"}, PublishDate: day(1),
	})

	builder := NewBuilder(dir, testIndexConfig(), 300)
	manifest, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if len(manifest.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(manifest.Posts))
	}

	// Newest first.
	if manifest.Posts[0].Slug != "post-b" {
		t.Errorf("posts not sorted newest first: %+v", manifest.Posts)
	}

	related := map[string][]string{}
	for _, p := range manifest.Posts {
		related[p.Slug] = p.RelatedPostSlugs
	}
	if len(related["post-a"]) != 1 || related["post-a"][0] != "post-b" {
		t.Errorf("post-a related = %v, want [post-b]", related["post-a"])
	}
	if len(related["post-b"]) != 1 || related["post-b"][0] != "post-a" {
		t.Errorf("post-b related = %v, want [post-a]", related["post-b"])
	}
}

func TestRebuildRelatedCapAndNoSelf(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		writePost(t, dir, core.Post{
			Title: "Post " + string(rune('A'+i)), Slug: "post-" + string(rune('a'+i)),
			Category: "Nutrition", PublishDate: day(i),
		})
	}

	builder := NewBuilder(dir, testIndexConfig(), 300)
	manifest, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	for _, post := range manifest.Posts {
		if len(post.RelatedPostSlugs) > 4 {
			t.Errorf("%s has %d related posts, want <= 4", post.Slug, len(post.RelatedPostSlugs))
		}
		for _, slug := range post.RelatedPostSlugs {
			if slug == post.Slug {
				t.Errorf("%s relates to itself", post.Slug)
			}
		}
	}
}

func TestRebuildTrimsTagsToTopTen(t *testing.T) {
	dir := t.TempDir()

	// "common" appears on every post; rare-N tags appear once each. With 12
	// distinct tags only the 10 most frequent (ties alphabetical) survive.
	rare := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa", "lambda"}
	for i, tag := range rare {
		writePost(t, dir, core.Post{
			Title: "Post " + tag, Slug: "post-" + tag, Category: "Wellness",
			Tags: []string{"common", tag}, PublishDate: day(i),
		})
	}

	builder := NewBuilder(dir, testIndexConfig(), 300)
	manifest, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	seen := map[string]bool{}
	for _, post := range manifest.Posts {
		for _, tag := range post.Tags {
			seen[tag] = true
		}
	}
	if len(seen) > 10 {
		t.Errorf("%d distinct tags survive, want <= 10: %v", len(seen), seen)
	}
	if !seen["common"] {
		t.Error("most frequent tag was trimmed")
	}
	// "zeta" and "theta" lose the alphabetical tie-break among the once-used tags.
	if seen["zeta"] || seen["theta"] {
		t.Error("tie-break should trim the alphabetically last rare tags")
	}
}

func TestRebuildIdempotentPostsArray(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, core.Post{
		Title: "Post A", Slug: "post-a", Category: "Nutrition",
		Tags: []string{"sugar"}, PublishDate: day(0),
		Content: "<p>" + strings.Repeat("Body text here. ", 40) + "</p>",
	})
	writePost(t, dir, core.Post{
		Title: "Post B", Slug: "post-b", Category: "Nutrition",
		Tags: []string{"sugar"}, PublishDate: day(1),
	})

	builder := NewBuilder(dir, testIndexConfig(), 300)
	first, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("first Rebuild failed: %v", err)
	}
	second, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("second Rebuild failed: %v", err)
	}

	firstJSON, _ := json.Marshal(first.Posts)
	secondJSON, _ := json.Marshal(second.Posts)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("posts array changed between rebuilds:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestRebuildSkipsFilesMissingSlugOrTitle(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, core.Post{
		Title: "Good Post", Slug: "good-post", Category: "Nutrition", PublishDate: day(0),
	})
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"title":"No Slug Here"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "garbage.json"), []byte(`not json at all`), 0644); err != nil {
		t.Fatal(err)
	}

	builder := NewBuilder(dir, testIndexConfig(), 300)
	manifest, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if len(manifest.Posts) != 1 || manifest.Posts[0].Slug != "good-post" {
		t.Errorf("expected only the valid post, got %+v", manifest.Posts)
	}
}

func TestRebuildClearsContentAndSetsPreview(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, core.Post{
		Title: "Post A", Slug: "post-a", Category: "Nutrition", PublishDate: day(0),
		Content: "<h2>Heading</h2><p>" + strings.Repeat("Useful words in the body. ", 30) + "</p>",
	})

	builder := NewBuilder(dir, testIndexConfig(), 300)
	manifest, err := builder.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	post := manifest.Posts[0]
	if post.Content != "" {
		t.Error("index entry should not carry the content body")
	}
	if post.Preview == "" || len(post.Preview) > 303 {
		t.Errorf("preview = %q (%d chars)", post.Preview, len(post.Preview))
	}
	if strings.Contains(post.Preview, "<") {
		t.Errorf("preview still contains HTML: %q", post.Preview)
	}
}

func TestLoadMissingIndexReturnsEmpty(t *testing.T) {
	manifest, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(manifest.Posts) != 0 {
		t.Errorf("expected empty manifest, got %d posts", len(manifest.Posts))
	}
}

func TestPlainTextPreviewTruncatesOnWordBoundary(t *testing.T) {
	html := "<p>" + strings.Repeat("word ", 100) + "</p>"
	got := PlainTextPreview(html, 50)
	if len(got) > 53 {
		t.Errorf("preview too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated preview should end in ellipsis: %q", got)
	}
}

func TestUpdateSitemapIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitemap.xml")
	posts := []core.Post{
		{Slug: "post-a", Title: "Post A", PublishDate: day(0)},
		{Slug: "post-b", Title: "Post B", PublishDate: day(1)},
	}

	if err := UpdateSitemap(path, "https://example.com", posts); err != nil {
		t.Fatalf("UpdateSitemap failed: %v", err)
	}
	if err := UpdateSitemap(path, "https://example.com", posts); err != nil {
		t.Fatalf("second UpdateSitemap failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if got := strings.Count(content, "https://example.com/blog/post-a"); got != 1 {
		t.Errorf("post-a appears %d times, want 1", got)
	}
	if got := strings.Count(content, "<url>"); got != 2 {
		t.Errorf("%d url entries, want 2", got)
	}
	if !strings.Contains(content, "<lastmod>2026-01-10</lastmod>") {
		t.Errorf("lastmod missing: %s", content)
	}
}

func TestUpdateSitemapKeepsExistingEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitemap.xml")
	if err := UpdateSitemap(path, "https://example.com", []core.Post{{Slug: "old-post", PublishDate: day(0)}}); err != nil {
		t.Fatal(err)
	}
	if err := UpdateSitemap(path, "https://example.com", []core.Post{{Slug: "new-post", PublishDate: day(1)}}); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "/blog/old-post") {
		t.Error("existing entry removed")
	}
	if !strings.Contains(string(data), "/blog/new-post") {
		t.Error("new entry missing")
	}
}

func TestUpdateLLMManifestIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llms.txt")
	posts := []core.Post{{Slug: "post-a", Title: "Post A", PublishDate: day(0)}}

	if err := UpdateLLMManifest(path, "https://example.com", posts); err != nil {
		t.Fatalf("UpdateLLMManifest failed: %v", err)
	}
	if err := UpdateLLMManifest(path, "https://example.com", posts); err != nil {
		t.Fatalf("second UpdateLLMManifest failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if got := strings.Count(content, "- Post A: https://example.com/blog/post-a"); got != 1 {
		t.Errorf("entry appears %d times, want 1", got)
	}
	if !strings.HasPrefix(content, "# Blog content guide") {
		t.Errorf("header missing: %q", content[:40])
	}
}
