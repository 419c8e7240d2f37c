package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/core"
	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/retry"
)

// ErrNoImage is returned when the API exhausted all attempts without
// producing a usable image.
var ErrNoImage = errors.New("no image produced")

// Client handles image-generation API interactions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cfg        config.Images
}

// NewClient creates a new image-generation API client.
func NewClient(cfg config.Images) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cfg:        cfg,
	}
}

// generationResponse mirrors the API response envelope.
type generationResponse struct {
	Data []struct {
		URL  string `json:"url"`
		Seed int64  `json:"seed"`
	} `json:"data"`
}

// Generate calls the image-generation API with exponential backoff between
// attempts. Empty bodies, HTML-shaped bodies and non-2xx responses are all
// retried; exhausting maxAttempts returns a terminal error wrapping ErrNoImage.
func (c *Client) Generate(ctx context.Context, prompt, negativePrompt string, maxAttempts int) (*core.GeneratedImage, error) {
	if maxAttempts <= 0 {
		maxAttempts = c.cfg.MaxAttempts
	}

	policy := retry.Policy{
		MaxAttempts: maxAttempts,
		Backoff: retry.Exponential(
			config.ParseDuration(c.cfg.BackoffBase, 2*time.Second),
			config.ParseDuration(c.cfg.BackoffCeiling, 30*time.Second),
		),
	}

	image, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*core.GeneratedImage, error) {
		return c.generateOnce(ctx, prompt, negativePrompt)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	return image, nil
}

func (c *Client) generateOnce(ctx context.Context, prompt, negativePrompt string) (*core.GeneratedImage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"prompt":          prompt,
		"aspect_ratio":    c.cfg.AspectRatio,
		"rendering_speed": c.cfg.RenderingSpeed,
		"magic_prompt":    c.cfg.MagicPrompt,
		"num_images":      "1",
	}
	if negativePrompt != "" {
		fields["negative_prompt"] = negativePrompt
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image API error (status %d): %s", resp.StatusCode, truncateBody(respBody))
	}

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("image API returned an empty body")
	}
	// Error pages from proxies come back as HTML with a 200.
	if trimmed[0] == '<' {
		return nil, fmt.Errorf("image API returned HTML instead of JSON: %s", truncateBody(trimmed))
	}

	var genResp generationResponse
	if err := json.Unmarshal(trimmed, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(genResp.Data) == 0 || genResp.Data[0].URL == "" {
		return nil, fmt.Errorf("image API response contained no image URL")
	}

	return &core.GeneratedImage{
		ID:  fmt.Sprintf("%d", genResp.Data[0].Seed),
		URL: genResp.Data[0].URL,
	}, nil
}

// Download fetches an image from a URL and saves it to the given path.
func (c *Client) Download(ctx context.Context, imageURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
