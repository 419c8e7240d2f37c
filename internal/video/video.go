package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/logger"
)

// Searcher is the interface the content generator depends on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]core.VideoResult, error)
}

// Client queries the video-search API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cfg     config.Video
}

// NewClient creates a video-search client.
func NewClient(cfg config.Video) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		cfg:     cfg,
	}
}

// Search runs a video search and returns the candidate results.
func (c *Client) Search(ctx context.Context, query string) ([]core.VideoResult, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(c.cfg.MaxResults))
	params.Set("videoDuration", c.cfg.Duration)
	params.Set("relevanceLanguage", c.cfg.RelevanceLanguage)
	params.Set("regionCode", c.cfg.RegionCode)

	fullURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create video search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute video search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video search request failed with status: %d", resp.StatusCode)
	}

	var apiResponse struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse video search response: %w", err)
	}

	var results []core.VideoResult
	for _, item := range apiResponse.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, core.VideoResult{
			VideoID: item.ID.VideoID,
			Title:   item.Snippet.Title,
		})
	}

	logger.Info("Video search completed", "query", query, "results_found", len(results))
	return results, nil
}

// ScoringWeights holds the relevance scoring increments. The defaults were
// tuned by trial in production, so they stay configurable rather than baked
// into the scorer.
type ScoringWeights struct {
	ExactMatch float64 // Added per blog-title keyword found in the video title
	QueryWord  float64 // Added per search-query word found in the video title
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{ExactMatch: 1.0, QueryWord: 0.5}
}

// BestMatch scores candidates by keyword overlap against both the search
// query and the blog title and returns the highest scorer. Ties keep the
// earlier candidate. Returns nil when nothing scores above zero.
func BestMatch(query, blogTitle string, results []core.VideoResult, weights ScoringWeights) *core.VideoResult {
	titleWords := significantWords(blogTitle)
	queryWords := significantWords(query)

	var best *core.VideoResult
	var bestScore float64

	for i := range results {
		candidate := strings.ToLower(results[i].Title)
		var score float64

		for word := range titleWords {
			if strings.Contains(candidate, word) {
				score += weights.ExactMatch
			}
		}
		for word := range queryWords {
			if titleWords[word] {
				continue // already counted as a title keyword
			}
			if strings.Contains(candidate, word) {
				score += weights.QueryWord
			}
		}

		if score > bestScore {
			bestScore = score
			best = &results[i]
		}
	}

	return best
}

// EmbedHTML returns the iframe markup substituted for the video placeholder.
func EmbedHTML(videoID, title string) string {
	return fmt.Sprintf(
		`<div class="video-embed"><iframe src="https://www.youtube.com/embed/%s" title="%s" frameborder="0" allowfullscreen loading="lazy"></iframe></div>`,
		videoID, htmlEscape(title),
	)
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
	return replacer.Replace(s)
}

func significantWords(s string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,:;!?\"'()")
		if len(word) > 3 {
			words[word] = true
		}
	}
	return words
}
