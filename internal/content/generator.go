package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/llm"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/retry"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/video"
)

// Generator produces the HTML body, preview and meta description for a post,
// and integrates an externally located video into the content.
type Generator struct {
	llmClient llm.TextGenerator
	videos    video.Searcher
	cfg       config.Content
	weights   video.ScoringWeights
}

// NewGenerator creates a content generator. videos may be nil, in which case
// the video placeholder is simply removed.
func NewGenerator(llmClient llm.TextGenerator, videos video.Searcher, cfg config.Content, weights video.ScoringWeights) *Generator {
	return &Generator{
		llmClient: llmClient,
		videos:    videos,
		cfg:       cfg,
		weights:   weights,
	}
}

// GenerateContent produces the full HTML body for a post. Unlike titles and
// slugs there is no fallback: exhausting the retry attempts is a terminal
// error and the caller skips the whole post.
func (g *Generator) GenerateContent(ctx context.Context, title, category string, keywords []string, published []core.Post) (string, error) {
	links := SelectInternalLinks(title, published)
	prompt := BuildContentPrompt(title, category, g.cfg.MinWords, g.cfg.MaxWords, keywords, links)

	timeout := config.ParseDuration(g.cfg.RequestTimeout, 120*time.Second)
	policy := retry.Policy{
		MaxAttempts: g.cfg.MaxAttempts,
		Backoff:     retry.Fixed(config.ParseDuration(g.cfg.RetryDelay, 5*time.Second)),
	}

	html, err := retry.DoValue(ctx, policy, func(ctx context.Context) (string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		response, err := g.llmClient.GenerateWithOptions(attemptCtx, prompt, llm.Options{Temperature: 0.8})
		if err != nil {
			return "", err
		}

		cleaned := stripCodeFence(response)
		if !strings.Contains(cleaned, "<p") && !strings.Contains(cleaned, "<h2") {
			return "", fmt.Errorf("response does not look like HTML content")
		}
		return cleaned, nil
	})
	if err != nil {
		return "", fmt.Errorf("content generation failed for %q: %w", title, err)
	}

	return html, nil
}

// IntegrateVideo inserts the video placeholder, derives a search query,
// scores the candidates and substitutes the best embed. Failures degrade to
// content without a video; they never fail the post.
func (g *Generator) IntegrateVideo(ctx context.Context, html, title string) string {
	html = InsertVideoPlaceholder(html)

	if g.videos == nil {
		return RemoveVideoPlaceholder(html)
	}

	query, err := g.videoQuery(ctx, title)
	if err != nil {
		logger.Warn("Video query generation failed, dropping video", "title", title, "error", err.Error())
		return RemoveVideoPlaceholder(html)
	}

	results, err := g.videos.Search(ctx, query)
	if err != nil {
		logger.Warn("Video search failed, dropping video", "query", query, "error", err.Error())
		return RemoveVideoPlaceholder(html)
	}

	best := video.BestMatch(query, title, results, g.weights)
	if best == nil {
		logger.Info("No video scored above zero", "query", query)
		return RemoveVideoPlaceholder(html)
	}

	logger.Info("Video selected", "video_id", best.VideoID, "query", query)
	return strings.Replace(html, VideoPlaceholder, video.EmbedHTML(best.VideoID, best.Title), 1)
}

func (g *Generator) videoQuery(ctx context.Context, title string) (string, error) {
	response, err := g.llmClient.GenerateWithOptions(ctx, buildVideoQueryPrompt(title), llm.Options{MaxTokens: 64, Temperature: 0.3})
	if err != nil {
		return "", err
	}
	query := strings.Trim(strings.TrimSpace(response), `"'`)
	if query == "" {
		return "", fmt.Errorf("empty video query")
	}
	return query, nil
}

// GeneratePreview produces the 50-80 word teaser. No fallback: failure is
// terminal for the post.
func (g *Generator) GeneratePreview(ctx context.Context, content string) (string, error) {
	response, err := g.llmClient.GenerateWithOptions(ctx, buildPreviewPrompt(content), llm.Options{MaxTokens: 256, Temperature: 0.6})
	if err != nil {
		return "", fmt.Errorf("preview generation failed: %w", err)
	}
	return strings.Trim(strings.TrimSpace(response), `"`), nil
}

// GenerateMetaDescription produces the SEO meta description, hard-clamped to
// the configured maximum. No fallback: failure is terminal for the post.
func (g *Generator) GenerateMetaDescription(ctx context.Context, title, content string) (string, error) {
	response, err := g.llmClient.GenerateWithOptions(ctx, buildMetaPrompt(title, content), llm.Options{MaxTokens: 256, Temperature: 0.4})
	if err != nil {
		return "", fmt.Errorf("meta description generation failed: %w", err)
	}

	meta := strings.Trim(strings.TrimSpace(response), `"`)
	maxLen := g.cfg.MetaMaxLength
	if maxLen <= 0 {
		maxLen = 155
	}
	return ClampMeta(meta, maxLen), nil
}

// ClampMeta truncates a meta description to at most maxLen characters,
// ending in "..." when truncation occurred.
func ClampMeta(meta string, maxLen int) string {
	if len(meta) <= maxLen {
		return meta
	}
	cut := maxLen - 3
	// Back up to a word boundary when one is close enough.
	if idx := strings.LastIndexByte(meta[:cut], ' '); idx > cut-20 {
		cut = idx
	}
	return strings.TrimRight(meta[:cut], " .,;:") + "..."
}

// InsertVideoPlaceholder places the placeholder token immediately after the
// first table or, absent a table, after the paragraph boundary nearest the
// content midpoint.
func InsertVideoPlaceholder(html string) string {
	if strings.Contains(html, VideoPlaceholder) {
		return html
	}

	lower := strings.ToLower(html)
	if idx := strings.Index(lower, "</table>"); idx >= 0 {
		pos := idx + len("</table>")
		return html[:pos] + "\n" + VideoPlaceholder + html[pos:]
	}

	mid := len(html) / 2
	bestPos := -1
	bestDist := len(html)
	for search := 0; ; {
		idx := strings.Index(lower[search:], "</p>")
		if idx < 0 {
			break
		}
		pos := search + idx + len("</p>")
		dist := pos - mid
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			bestPos = pos
		}
		search = pos
	}

	if bestPos < 0 {
		return html + "\n" + VideoPlaceholder
	}
	return html[:bestPos] + "\n" + VideoPlaceholder + html[bestPos:]
}

// RemoveVideoPlaceholder strips the placeholder token when no video is used.
func RemoveVideoPlaceholder(html string) string {
	html = strings.ReplaceAll(html, VideoPlaceholder+"\n", "")
	return strings.ReplaceAll(html, VideoPlaceholder, "")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
