package images

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

// API is the image-generation surface the service depends on. Client
// implements it; tests substitute a fake.
type API interface {
	Generate(ctx context.Context, prompt, negativePrompt string, maxAttempts int) (*core.GeneratedImage, error)
	Download(ctx context.Context, imageURL, outputPath string) error
}

// placeholderSelector locates inline-image markers in generated content.
const placeholderSelector = "div.image-placeholder[data-description]"

// inlineAttempts is the per-image retry cap for inline images. Failures are
// logged and skipped rather than aborting the remaining images.
const inlineAttempts = 2

// Service wraps the image API with post-level behavior: featured images that
// degrade to nothing on failure, and inline images substituted into content.
type Service struct {
	api     API
	builder *PromptBuilder
	rng     *rand.Rand
	cfg     config.Images
}

// NewService creates an image service. rng drives both prompt randomization
// and inline placeholder selection.
func NewService(api API, rng *rand.Rand, cfg config.Images) *Service {
	return &Service{
		api:     api,
		builder: NewPromptBuilder(rng),
		rng:     rng,
		cfg:     cfg,
	}
}

// GenerateBlogImage generates the featured image for a post. A failed
// generation degrades to no featured image rather than failing the post:
// the returned image is nil and the error is only logged.
func (s *Service) GenerateBlogImage(ctx context.Context, title, category, extra string) *core.GeneratedImage {
	prompt := s.builder.Build(title, category, extra, true)
	negative := s.builder.NegativePrompt(true)

	image, err := s.api.Generate(ctx, prompt, negative, s.cfg.MaxAttempts)
	if err != nil {
		logger.Warn("Featured image generation failed, continuing without image", "title", title, "error", err.Error())
		return nil
	}
	return image
}

// DownloadFeatured persists a featured image under the per-date directory and
// returns the site-relative path.
func (s *Service) DownloadFeatured(ctx context.Context, image *core.GeneratedImage, slug string, date time.Time) (string, error) {
	fileName := fmt.Sprintf("%s-featured.png", slug)
	localPath := filepath.Join(s.cfg.OutputDir, date.Format("2006-01-02"), fileName)

	if err := s.api.Download(ctx, image.URL, localPath); err != nil {
		return "", fmt.Errorf("failed to persist featured image: %w", err)
	}
	image.LocalPath = localPath
	return webPath(localPath), nil
}

// GenerateInlineImages finds the image placeholders in the content, selects
// 1 to the configured maximum of them at random, generates an image for each
// and replaces only the selected placeholders with <img> markup plus caption.
// Unselected placeholders are left untouched; per-image failures are logged
// and skipped.
func (s *Service) GenerateInlineImages(ctx context.Context, html, title, slug string, date time.Time) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html, fmt.Errorf("failed to parse content HTML: %w", err)
	}

	placeholders := doc.Find(placeholderSelector)
	if placeholders.Length() == 0 {
		return html, nil
	}

	indices := s.rng.Perm(placeholders.Length())
	count := 1 + s.rng.Intn(s.maxInline())
	if count > len(indices) {
		count = len(indices)
	}
	selected := make(map[int]bool, count)
	for _, idx := range indices[:count] {
		selected[idx] = true
	}

	generated := 0
	placeholders.Each(func(i int, sel *goquery.Selection) {
		if !selected[i] {
			return
		}

		description, _ := sel.Attr("data-description")
		prompt := s.builder.Build(title, "", description, false)
		negative := s.builder.NegativePrompt(false)

		image, err := s.api.Generate(ctx, prompt, negative, inlineAttempts)
		if err != nil {
			logger.Warn("Inline image generation failed, skipping placeholder", "slug", slug, "description", description, "error", err.Error())
			return
		}

		fileName := fmt.Sprintf("%s-inline-%d.png", slug, i+1)
		localPath := filepath.Join(s.cfg.OutputDir, date.Format("2006-01-02"), slug, fileName)
		if err := s.api.Download(ctx, image.URL, localPath); err != nil {
			logger.Warn("Inline image download failed, skipping placeholder", "slug", slug, "error", err.Error())
			return
		}

		figure := fmt.Sprintf(
			`<figure class="inline-image"><img src="%s" alt="%s" loading="lazy" /><figcaption>%s</figcaption></figure>`,
			webPath(localPath), htmlEscape(description), htmlEscape(description),
		)
		sel.ReplaceWithHtml(figure)
		generated++
	})

	logger.Info("Inline images processed", "slug", slug, "placeholders", placeholders.Length(), "generated", generated)

	// goquery wraps fragments in a full document; return the body's inner HTML.
	result, err := doc.Find("body").Html()
	if err != nil {
		return html, fmt.Errorf("failed to serialize content HTML: %w", err)
	}
	return result, nil
}

func (s *Service) maxInline() int {
	if s.cfg.MaxInline <= 0 {
		return 3
	}
	return s.cfg.MaxInline
}

// webPath converts a local output path to the site-relative URL path.
func webPath(localPath string) string {
	p := filepath.ToSlash(localPath)
	if idx := strings.Index(p, "public/"); idx >= 0 {
		return "/" + p[idx+len("public/"):]
	}
	return "/" + p
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}
