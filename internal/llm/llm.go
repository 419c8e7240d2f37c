package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/best-trading-indicator-tools/ai-blogs-generator/internal/config"
)

// TextGenerator is the interface pipeline stages depend on. Tests substitute
// a fake; production uses Client.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithOptions(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options overrides per-call generation parameters.
type Options struct {
	MaxTokens   int
	Temperature float64
	Model       string
}

// Client wraps the messages API used for titles, slugs, full content,
// previews, meta descriptions, search queries and keyword suggestions.
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient creates a text-generation client from configuration.
func NewClient(cfg config.AI) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required: set ANTHROPIC_API_KEY or ai.api_key in config")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	return &Client{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     config.ParseDuration(cfg.Timeout, 60*time.Second),
	}, nil
}

// Generate sends a single-user-message request and returns the text response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWithOptions(ctx, prompt, Options{})
}

// GenerateWithOptions sends a request with per-call overrides applied.
func (c *Client) GenerateWithOptions(ctx context.Context, prompt string, opts Options) (string, error) {
	model := c.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := c.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages API call failed: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		return "", fmt.Errorf("empty response from model %s", model)
	}

	return responseText, nil
}
