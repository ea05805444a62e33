// ABOUTME: Centralized configuration for the dataset pipeline
// ABOUTME: Defaults, optional YAML file and PEDAGOGY_* environment overrides, validated on load
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PEDAGOGY_"

// Negative answer policies
const (
	NegativeOriginal    = "original"
	NegativeAdversarial = "adversarial"
)

const maxConfigFileSize = 1024 * 1024

// Config holds all configuration for the pipeline
type Config struct {
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Generation GenerationConfig `koanf:"generation"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Log        LogConfig        `koanf:"log"`
}

// OpenAIConfig configures the oracle client
type OpenAIConfig struct {
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url" validate:"omitempty,url"`
	Model      string        `koanf:"model" validate:"required"`
	Timeout    time.Duration `koanf:"timeout" validate:"gte=0"`
	MaxRetries int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `koanf:"retry_delay" validate:"gte=0"`
	RateLimit  float64       `koanf:"rate_limit" validate:"gte=0"`
}

// GenerationConfig configures dialogue and preference-tree generation
type GenerationConfig struct {
	Branching      int    `koanf:"branching" validate:"gte=1"`
	RecencyWindow  int    `koanf:"recency_window" validate:"gte=0"`
	MinScore       int    `koanf:"min_score" validate:"gte=1,lte=5"`
	NegativePolicy string `koanf:"negative_policy" validate:"oneof=original adversarial"`
	// Seed of zero picks a time-based seed
	Seed         int64 `koanf:"seed"`
	MaxDialogues int   `koanf:"max_dialogues" validate:"gte=0"`
	WindowChars  int   `koanf:"window_chars" validate:"gte=1"`
	OverlapChars int   `koanf:"overlap_chars" validate:"gte=0"`
}

// ExtractionConfig configures PDF chunking
type ExtractionConfig struct {
	MinChunkChars int     `koanf:"min_chunk_chars" validate:"gte=0"`
	MaxChunkChars int     `koanf:"max_chunk_chars" validate:"gte=1"`
	MinWords      int     `koanf:"min_words" validate:"gte=0"`
	MinAlnumRatio float64 `koanf:"min_alnum_ratio" validate:"gte=0,lte=1"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	Format     string `koanf:"format" validate:"oneof=console json"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:      "gpt-4o",
			Timeout:    120 * time.Second,
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
		Generation: GenerationConfig{
			Branching:      3,
			RecencyWindow:  3,
			MinScore:       4,
			NegativePolicy: NegativeOriginal,
			WindowChars:    5000,
			OverlapChars:   1000,
		},
		Extraction: ExtractionConfig{
			MinChunkChars: 1000,
			MaxChunkChars: 7000,
			MinWords:      200,
			MinAlnumRatio: 0.5,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration with precedence env > YAML file > defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// PEDAGOGY_GENERATION_MAX_DIALOGUES -> generation.max_dialogues
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, field, ok := strings.Cut(key, "_")
		if !ok {
			return key
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Extraction.MaxChunkChars <= c.Extraction.MinChunkChars {
		return fmt.Errorf("extraction.max_chunk_chars (%d) must exceed extraction.min_chunk_chars (%d)",
			c.Extraction.MaxChunkChars, c.Extraction.MinChunkChars)
	}
	if c.Generation.OverlapChars > c.Generation.WindowChars {
		return fmt.Errorf("generation.overlap_chars (%d) must not exceed generation.window_chars (%d)",
			c.Generation.OverlapChars, c.Generation.WindowChars)
	}
	return nil
}

// RequireAPIKey reports an error when no OpenAI key is configured
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or PEDAGOGY_OPENAI_API_KEY)")
	}
	return nil
}
