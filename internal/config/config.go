// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	AI        AIConfig        `mapstructure:"ai"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs the BFS crawl loop and HTTP client behavior.
type CrawlerConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	RespectRobots    bool   `mapstructure:"respect_robots"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	DelayMs          int    `mapstructure:"delay_ms"`
	MaxPagesDefault  int    `mapstructure:"max_pages_default"`
	MaxDepthDefault  int    `mapstructure:"max_depth_default"`
	RunawayFactor    int    `mapstructure:"runaway_factor"`
	KeywordGate      bool   `mapstructure:"keyword_gate"`
}

// ExtractorConfig governs candidate generation and scoring.
type ExtractorConfig struct {
	IncludeRoleOnly bool    `mapstructure:"include_role_only"`
	SemanticFloor   float64 `mapstructure:"semantic_floor"`
	MaxTextChars    int     `mapstructure:"max_text_chars"`
	Enhance         bool    `mapstructure:"enhance"`
}

// AIConfig points at the local inference endpoints for embeddings and
// zero-shot classification. Empty URLs disable the semantic path and the
// pipeline runs on its deterministic fallbacks.
type AIConfig struct {
	EmbeddingURL   string `mapstructure:"embedding_url"`
	ZeroShotURL    string `mapstructure:"zero_shot_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig sets the on-disk data contract paths.
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	PagesFile    string `mapstructure:"pages_file"`
	EntitiesFile string `mapstructure:"entities_file"`
	CancelFile   string `mapstructure:"cancel_file"`
	DBPath       string `mapstructure:"db_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXTRACTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("crawler.user_agent", "extractify-bot/1.0 (+https://github.com/thecodingpenguins/extractify)")
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.max_retries", 2)
	v.SetDefault("crawler.backoff_initial_ms", 250)
	v.SetDefault("crawler.backoff_max_ms", 5000)
	v.SetDefault("crawler.delay_ms", 1000)
	v.SetDefault("crawler.max_pages_default", 30)
	v.SetDefault("crawler.max_depth_default", 2)
	v.SetDefault("crawler.runaway_factor", 8)
	v.SetDefault("crawler.keyword_gate", false)
	v.SetDefault("extractor.include_role_only", false)
	v.SetDefault("extractor.semantic_floor", 0.0)
	v.SetDefault("extractor.max_text_chars", 300000)
	v.SetDefault("extractor.enhance", true)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.pages_file", "pages.jsonl")
	v.SetDefault("storage.entities_file", "entities.json")
	v.SetDefault("storage.cancel_file", "cancel.marker")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	if c.Crawler.RunawayFactor <= 1 {
		return fmt.Errorf("crawler.runaway_factor must be > 1")
	}
	if c.Extractor.SemanticFloor < 0 || c.Extractor.SemanticFloor > 1 {
		return fmt.Errorf("extractor.semantic_floor must be in [0,1]")
	}
	if c.Extractor.MaxTextChars <= 0 {
		return fmt.Errorf("extractor.max_text_chars must be > 0")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must be set")
	}
	return nil
}

// RequestTimeout returns the fetch timeout as a duration.
func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay returns the courtesy delay between fetches.
func (c CrawlerConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// BackoffInitial returns the first retry backoff step.
func (c CrawlerConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry backoff ceiling.
func (c CrawlerConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}
