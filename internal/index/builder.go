package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

// IndexFileName is the singleton index file inside the content directory.
const IndexFileName = "blog-index.json"

var dateDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Builder rebuilds the index manifest from the post files on disk.
//
// Rebuild performs a whole-file read-modify-rewrite of the index under a
// single-writer assumption: the pipeline never runs concurrently with
// itself, and nothing enforces that beyond this precondition.
type Builder struct {
	contentDir string
	cfg        config.Index
	preview    int
}

// NewBuilder creates an index builder over the content directory.
func NewBuilder(contentDir string, cfg config.Index, previewLength int) *Builder {
	if previewLength <= 0 {
		previewLength = 300
	}
	return &Builder{contentDir: contentDir, cfg: cfg, preview: previewLength}
}

// Rebuild rescans every post file (legacy root-level files plus date-named
// subdirectories), recomputes related posts and the trimmed tag vocabulary,
// and rewrites the index with an updated timestamp. Running it twice over an
// unchanged post set produces an identical posts array.
func (b *Builder) Rebuild() (*core.IndexManifest, error) {
	posts, err := b.scanPosts()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishDate.After(posts[j].PublishDate)
	})

	computeRelated(posts, b.cfg.MaxRelated)
	trimTags(posts, b.cfg.TopTags)

	manifest := &core.IndexManifest{
		LastUpdated: time.Now().UTC(),
		Posts:       posts,
	}

	if err := b.write(manifest); err != nil {
		return nil, err
	}

	logger.Info("Index rebuilt", "posts", len(posts))
	return manifest, nil
}

// scanPosts parses every post file under the content directory. Files missing
// a slug or title are skipped with a warning.
func (b *Builder) scanPosts() ([]core.Post, error) {
	entries, err := os.ReadDir(b.contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if !dateDirPattern.MatchString(name) {
				continue
			}
			subEntries, err := os.ReadDir(filepath.Join(b.contentDir, name))
			if err != nil {
				logger.Warn("Could not read post subdirectory", "dir", name, "error", err.Error())
				continue
			}
			for _, sub := range subEntries {
				if !sub.IsDir() && strings.HasSuffix(sub.Name(), ".json") {
					files = append(files, filepath.Join(name, sub.Name()))
				}
			}
			continue
		}
		// Legacy posts live as root-level JSON files next to the index.
		if strings.HasSuffix(name, ".json") && name != IndexFileName {
			files = append(files, name)
		}
	}

	sort.Strings(files)

	posts := make([]core.Post, 0, len(files))
	for _, relPath := range files {
		data, err := os.ReadFile(filepath.Join(b.contentDir, relPath))
		if err != nil {
			logger.Warn("Could not read post file", "file", relPath, "error", err.Error())
			continue
		}

		var post core.Post
		if err := json.Unmarshal(data, &post); err != nil {
			logger.Warn("Skipping unparseable post file", "file", relPath, "error", err.Error())
			continue
		}
		if post.Slug == "" || post.Title == "" {
			logger.Warn("Skipping post file missing slug or title", "file", relPath)
			continue
		}

		post.FilePath = filepath.ToSlash(relPath)
		if post.Content != "" {
			post.Preview = PlainTextPreview(post.Content, b.preview)
			post.Content = "" // index entries carry the preview only
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func (b *Builder) write(manifest *core.IndexManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	path := filepath.Join(b.contentDir, IndexFileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

// Load reads the persisted index. A missing index yields an empty manifest.
func Load(contentDir string) (*core.IndexManifest, error) {
	data, err := os.ReadFile(filepath.Join(contentDir, IndexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &core.IndexManifest{}, nil
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var manifest core.IndexManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid index file: %w", err)
	}
	return &manifest, nil
}

// computeRelated fills relatedPostSlugs for every post: the top maxRelated
// other posts, by recency, sharing at least one tag or the same category.
// A post never relates to itself. posts must already be sorted newest first.
func computeRelated(posts []core.Post, maxRelated int) {
	for i := range posts {
		tags := make(map[string]bool, len(posts[i].Tags))
		for _, tag := range posts[i].Tags {
			tags[strings.ToLower(tag)] = true
		}

		var related []string
		for j := range posts {
			if len(related) >= maxRelated {
				break
			}
			if j == i {
				continue
			}

			shared := posts[j].Category != "" && posts[j].Category == posts[i].Category
			if !shared {
				for _, tag := range posts[j].Tags {
					if tags[strings.ToLower(tag)] {
						shared = true
						break
					}
				}
			}
			if shared {
				related = append(related, posts[j].Slug)
			}
		}
		posts[i].RelatedPostSlugs = related
	}
}

// trimTags computes the global tag frequency, keeps the topN most frequent
// tags and filters every post's tag list down to that set. Ties are broken
// alphabetically so the result is deterministic. Posts may end up with no
// tags at all.
func trimTags(posts []core.Post, topN int) {
	freq := make(map[string]int)
	for _, post := range posts {
		for _, tag := range post.Tags {
			freq[strings.ToLower(tag)]++
		}
	}

	names := make([]string, 0, len(freq))
	for tag := range freq {
		names = append(names, tag)
	}
	sort.Slice(names, func(i, j int) bool {
		if freq[names[i]] != freq[names[j]] {
			return freq[names[i]] > freq[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > topN {
		names = names[:topN]
	}
	kept := make(map[string]bool, len(names))
	for _, tag := range names {
		kept[tag] = true
	}

	for i := range posts {
		var filtered []string
		for _, tag := range posts[i].Tags {
			if kept[strings.ToLower(tag)] {
				filtered = append(filtered, tag)
			}
		}
		posts[i].Tags = filtered
	}
}

// PlainTextPreview strips the HTML and truncates the text to maxLen
// characters on a word boundary.
func PlainTextPreview(html string, maxLen int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	var text string
	if err != nil {
		text = html
	} else {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	if idx := strings.LastIndexByte(text[:cut], ' '); idx > 0 {
		cut = idx
	}
	return strings.TrimRight(text[:cut], " .,;:") + "..."
}
