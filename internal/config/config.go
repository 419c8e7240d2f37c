package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Images    Images    `mapstructure:"images"`
	Video     Video     `mapstructure:"video"`
	Content   Content   `mapstructure:"content"`
	Topics    Topics    `mapstructure:"topics"`
	Trends    Trends    `mapstructure:"trends"`
	Index     Index     `mapstructure:"index"`
	Server    Server    `mapstructure:"server"`
	Scheduler Scheduler `mapstructure:"scheduler"`
}

// App holds general application configuration.
type App struct {
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	ContentDir  string `mapstructure:"content_dir"`  // Root of the generated site data (posts, index)
	KeywordsDir string `mapstructure:"keywords_dir"` // Directory holding the static keyword JSON lists
	DataDir     string `mapstructure:"data_dir"`     // Local state (history database, trend snapshots)
	Author      string `mapstructure:"author"`
	SiteBaseURL string `mapstructure:"site_base_url"`
}

// AI holds text-generation API configuration.
type AI struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// Images holds image-generation API configuration.
type Images struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	AspectRatio    string `mapstructure:"aspect_ratio"`
	RenderingSpeed string `mapstructure:"rendering_speed"`
	MagicPrompt    string `mapstructure:"magic_prompt"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	BackoffBase    string `mapstructure:"backoff_base"`
	BackoffCeiling string `mapstructure:"backoff_ceiling"`
	OutputDir      string `mapstructure:"output_dir"` // Where downloaded images are persisted
	MaxInline      int    `mapstructure:"max_inline"` // Upper bound on inline images per post
}

// Video holds video-search API configuration.
type Video struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	MaxResults        int     `mapstructure:"max_results"`
	Duration          string  `mapstructure:"duration"`
	RelevanceLanguage string  `mapstructure:"relevance_language"`
	RegionCode        string  `mapstructure:"region_code"`
	ExactMatchWeight  float64 `mapstructure:"exact_match_weight"` // Score per exact keyword match
	QueryWordWeight   float64 `mapstructure:"query_word_weight"`  // Score per secondary query-word match
}

// Content holds content-generation configuration.
type Content struct {
	MinWords       int    `mapstructure:"min_words"`
	MaxWords       int    `mapstructure:"max_words"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
	RetryDelay     string `mapstructure:"retry_delay"`
	RequestTimeout string `mapstructure:"request_timeout"` // Hard per-attempt abort for the content call
	PreviewLength  int    `mapstructure:"preview_length"`  // Plain-text preview truncation, in characters
	MetaMaxLength  int    `mapstructure:"meta_max_length"`
}

// Topics holds topic-generation configuration.
type Topics struct {
	MaxAttempts      int     `mapstructure:"max_attempts"`      // Diversity retry cap before the batch aborts
	LongTailChance   float64 `mapstructure:"long_tail_chance"`  // Probability of picking a long-tail phrase
	TrendingChance   float64 `mapstructure:"trending_chance"`   // Probability of a trending/semantic pair otherwise
	CategoryWindow   int     `mapstructure:"category_window"`   // Sliding window of recent categories to avoid
	HistoryRetention string  `mapstructure:"history_retention"` // How long keyword signatures stay in history
}

// Trends holds trend-discovery configuration.
type Trends struct {
	SnapshotFile   string `mapstructure:"snapshot_file"`
	MaxSuggestions int    `mapstructure:"max_suggestions"`
}

// Index holds index/sitemap/manifest builder configuration.
type Index struct {
	TopTags     int    `mapstructure:"top_tags"`    // Tag vocabulary kept after trimming
	MaxRelated  int    `mapstructure:"max_related"` // Related posts per post
	SitemapFile string `mapstructure:"sitemap_file"`
	LLMManifest string `mapstructure:"llm_manifest"`
}

// Server holds the JSON file server configuration.
type Server struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Scheduler holds the cron scheduler configuration.
type Scheduler struct {
	Cron      string `mapstructure:"cron"`
	Timezone  string `mapstructure:"timezone"`
	BatchSize int    `mapstructure:"batch_size"`
}

var globalConfig *Config

// Load loads the configuration from .env, config file, environment and defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".bloggen")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.content_dir", "public/data")
	viper.SetDefault("app.keywords_dir", "keywords")
	viper.SetDefault("app.data_dir", ".bloggen-cache")
	viper.SetDefault("app.author", "Editorial Team")
	viper.SetDefault("app.site_base_url", "https://example.com")

	// AI defaults
	viper.SetDefault("ai.model", "claude-3-5-haiku-latest")
	viper.SetDefault("ai.max_tokens", 8192)
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.timeout", "60s")

	// Image defaults
	viper.SetDefault("images.base_url", "https://api.ideogram.ai/v1/ideogram-v3/generate")
	viper.SetDefault("images.aspect_ratio", "16x9")
	viper.SetDefault("images.rendering_speed", "TURBO")
	viper.SetDefault("images.magic_prompt", "OFF")
	viper.SetDefault("images.max_attempts", 3)
	viper.SetDefault("images.backoff_base", "2s")
	viper.SetDefault("images.backoff_ceiling", "30s")
	viper.SetDefault("images.output_dir", "public/images/blog")
	viper.SetDefault("images.max_inline", 3)

	// Video defaults
	viper.SetDefault("video.base_url", "https://www.googleapis.com/youtube/v3/search")
	viper.SetDefault("video.max_results", 5)
	viper.SetDefault("video.duration", "medium")
	viper.SetDefault("video.relevance_language", "en")
	viper.SetDefault("video.region_code", "US")
	viper.SetDefault("video.exact_match_weight", 1.0)
	viper.SetDefault("video.query_word_weight", 0.5)

	// Content defaults
	viper.SetDefault("content.min_words", 1200)
	viper.SetDefault("content.max_words", 2000)
	viper.SetDefault("content.max_attempts", 3)
	viper.SetDefault("content.retry_delay", "5s")
	viper.SetDefault("content.request_timeout", "120s")
	viper.SetDefault("content.preview_length", 300)
	viper.SetDefault("content.meta_max_length", 155)

	// Topic defaults
	viper.SetDefault("topics.max_attempts", 10)
	viper.SetDefault("topics.long_tail_chance", 0.4)
	viper.SetDefault("topics.trending_chance", 0.5)
	viper.SetDefault("topics.category_window", 3)
	viper.SetDefault("topics.history_retention", "720h")

	// Trend defaults
	viper.SetDefault("trends.snapshot_file", "trending-keywords.json")
	viper.SetDefault("trends.max_suggestions", 10)

	// Index defaults
	viper.SetDefault("index.top_tags", 10)
	viper.SetDefault("index.max_related", 4)
	viper.SetDefault("index.sitemap_file", "public/sitemap.xml")
	viper.SetDefault("index.llm_manifest", "public/llms.txt")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Scheduler defaults
	viper.SetDefault("scheduler.cron", "0 7 * * *")
	viper.SetDefault("scheduler.timezone", "UTC")
	viper.SetDefault("scheduler.batch_size", 3)
}

// bindEnvironmentVariables sets up flexible environment variable binding.
func bindEnvironmentVariables() {
	bindEnvKeys("ai.api_key", []string{
		"ANTHROPIC_API_KEY",
		"CLAUDE_API_KEY",
	})

	bindEnvKeys("images.api_key", []string{
		"IDEOGRAM_API_KEY",
		"IMAGE_API_KEY",
	})

	bindEnvKeys("video.api_key", []string{
		"YOUTUBE_API_KEY",
		"GOOGLE_API_KEY",
	})
}

// bindEnvKeys binds multiple environment variable names to a single config key.
func bindEnvKeys(configKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(configKey, value)
			return
		}
	}
}

func validateConfig(config *Config) error {
	if config.Content.MinWords <= 0 || config.Content.MaxWords < config.Content.MinWords {
		return fmt.Errorf("invalid content word bounds: min=%d max=%d", config.Content.MinWords, config.Content.MaxWords)
	}
	if config.Topics.MaxAttempts <= 0 {
		return fmt.Errorf("topics.max_attempts must be positive, got %d", config.Topics.MaxAttempts)
	}
	if config.Index.TopTags <= 0 || config.Index.MaxRelated <= 0 {
		return fmt.Errorf("index.top_tags and index.max_related must be positive")
	}
	if _, err := time.ParseDuration(config.Content.RequestTimeout); err != nil {
		return fmt.Errorf("invalid content.request_timeout: %w", err)
	}
	if _, err := time.ParseDuration(config.Images.BackoffBase); err != nil {
		return fmt.Errorf("invalid images.backoff_base: %w", err)
	}
	return nil
}

// ParseDuration parses a duration config value, falling back to def on error.
func ParseDuration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
