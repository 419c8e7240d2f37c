package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/content"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/images"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/index"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/topics"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/trends"
)

// ErrAllFailed is returned when every item in a batch failed. It is the only
// condition under which the batch driver exits with a non-zero status.
var ErrAllFailed = errors.New("every post in the batch failed")

// Result summarizes a batch run.
type Result struct {
	Requested int
	Succeeded int
	Failed    int
	Slugs     []string
}

// Runner drives the sequential generation pipeline: trend discovery, then
// one topic at a time through content, video, images and file output, then
// a full index rebuild.
//
// Execution is strictly sequential. The content directory is read and
// rewritten whole-file; this is safe only because the pipeline never runs
// concurrently with itself, which is an operating assumption, not an
// enforced invariant.
type Runner struct {
	cfg        *config.Config
	discoverer *trends.Discoverer
	topicsGen  *topics.Generator
	contentGen *content.Generator
	imageSvc   *images.Service
	builder    *index.Builder
	history    topics.History

	// Delay between batch items, purely to respect external API rate limits.
	ItemDelay time.Duration
}

// NewRunner assembles a pipeline runner from its stages.
func NewRunner(cfg *config.Config, discoverer *trends.Discoverer, topicsGen *topics.Generator, contentGen *content.Generator, imageSvc *images.Service, builder *index.Builder, history topics.History) *Runner {
	return &Runner{
		cfg:        cfg,
		discoverer: discoverer,
		topicsGen:  topicsGen,
		contentGen: contentGen,
		imageSvc:   imageSvc,
		builder:    builder,
		history:    history,
		ItemDelay:  15 * time.Second,
	}
}

// Run generates a batch of n posts. A fatal error in one post's generation
// aborts only that post; the batch continues. Exhausting topic diversity
// aborts the remainder of the batch early. The returned error is non-nil
// only when nothing could be read at startup or every item failed.
func (r *Runner) Run(ctx context.Context, n int) (*Result, error) {
	result := &Result{Requested: n}

	snapshot := r.discoverer.Discover(ctx)
	snapshotPath := filepath.Join(r.cfg.App.DataDir, r.cfg.Trends.SnapshotFile)
	if err := trends.SaveSnapshot(snapshotPath, snapshot); err != nil {
		logger.Warn("Could not persist trend snapshot", "error", err.Error())
	}

	manifest, err := index.Load(r.cfg.App.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing index: %w", err)
	}
	existing := topics.ExistingFromIndex(manifest)
	published := manifest.Posts

	recentCategories := r.recentCategories()
	batch := topics.NewBatch()
	var usedKeywords []string

	for i := 0; i < n; i++ {
		if i > 0 && r.ItemDelay > 0 {
			select {
			case <-time.After(r.ItemDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		topic, err := r.topicsGen.GenerateTopic(ctx, snapshot, usedKeywords, recentCategories, existing, batch)
		if err != nil {
			if errors.Is(err, topics.ErrNoUniqueTopic) {
				logger.Error("Topic diversity exhausted, aborting remainder of batch", err, "generated", result.Succeeded)
				result.Failed += n - i
				break
			}
			logger.Error("Topic generation failed", err)
			result.Failed++
			continue
		}

		usedKeywords = append(usedKeywords, topic.Keywords...)
		recentCategories = slideWindow(recentCategories, topic.Category, r.cfg.Topics.CategoryWindow)

		post, err := r.generatePost(ctx, topic, published)
		if err != nil {
			logger.Error("Post generation failed, skipping topic", err, "slug", topic.Slug)
			result.Failed++
			continue
		}

		published = append(published, *post)
		result.Succeeded++
		result.Slugs = append(result.Slugs, post.Slug)
	}

	rebuilt, err := r.builder.Rebuild()
	if err != nil {
		return result, fmt.Errorf("index rebuild failed: %w", err)
	}
	if err := index.UpdateSitemap(r.cfg.Index.SitemapFile, r.cfg.App.SiteBaseURL, rebuilt.Posts); err != nil {
		logger.Warn("Sitemap update failed", "error", err.Error())
	}
	if err := index.UpdateLLMManifest(r.cfg.Index.LLMManifest, r.cfg.App.SiteBaseURL, rebuilt.Posts); err != nil {
		logger.Warn("LLM manifest update failed", "error", err.Error())
	}

	if n > 0 && result.Succeeded == 0 {
		return result, ErrAllFailed
	}
	return result, nil
}

// generatePost runs one topic through content, video, images and file output.
// Content, preview and meta failures are terminal for the post; image
// failures only degrade it.
func (r *Runner) generatePost(ctx context.Context, topic *core.Topic, published []core.Post) (*core.Post, error) {
	html, err := r.contentGen.GenerateContent(ctx, topic.Title, topic.Category, topic.Keywords, published)
	if err != nil {
		return nil, err
	}

	html = r.contentGen.IntegrateVideo(ctx, html, topic.Title)

	now := time.Now().UTC()

	if r.imageSvc != nil {
		if withInline, err := r.imageSvc.GenerateInlineImages(ctx, html, topic.Title, topic.Slug, now); err != nil {
			logger.Warn("Inline image pass failed, keeping content as-is", "slug", topic.Slug, "error", err.Error())
		} else {
			html = withInline
		}
	}

	post := &core.Post{
		Title:       topic.Title,
		Slug:        topic.Slug,
		Content:     html,
		Author:      r.cfg.App.Author,
		Category:    topic.Category,
		Tags:        topic.Tags,
		PublishDate: now,
	}

	if r.imageSvc != nil {
		if image := r.imageSvc.GenerateBlogImage(ctx, topic.Title, topic.Category, ""); image != nil {
			if path, err := r.imageSvc.DownloadFeatured(ctx, image, topic.Slug, now); err != nil {
				logger.Warn("Featured image download failed, continuing without image", "slug", topic.Slug, "error", err.Error())
			} else {
				post.FeaturedImage = path
			}
		}
	}

	if post.Preview, err = r.contentGen.GeneratePreview(ctx, html); err != nil {
		return nil, err
	}
	if post.MetaDescription, err = r.contentGen.GenerateMetaDescription(ctx, topic.Title, html); err != nil {
		return nil, err
	}

	if err := r.writePost(post, now); err != nil {
		return nil, err
	}

	logger.Info("Post generated", "slug", post.Slug, "file", post.FilePath)
	return post, nil
}

// writePost persists the full post JSON under the date-named directory.
func (r *Runner) writePost(post *core.Post, date time.Time) error {
	relPath := filepath.Join(date.Format("2006-01-02"), post.Slug+".json")
	fullPath := filepath.Join(r.cfg.App.ContentDir, relPath)
	post.FilePath = filepath.ToSlash(relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create post directory: %w", err)
	}

	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal post %s: %w", post.Slug, err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write post %s: %w", post.Slug, err)
	}
	return nil
}

func (r *Runner) recentCategories() []string {
	if r.history == nil {
		return nil
	}
	categories, err := r.history.RecentCategories(r.cfg.Topics.CategoryWindow)
	if err != nil {
		logger.Warn("Could not load recent categories", "error", err.Error())
		return nil
	}
	return categories
}

// slideWindow appends a value to a bounded most-recent-first window.
func slideWindow(window []string, value string, size int) []string {
	window = append([]string{value}, window...)
	if size > 0 && len(window) > size {
		window = window[:size]
	}
	return window
}
