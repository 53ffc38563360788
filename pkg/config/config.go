// Package config loads billtrace configuration from a YAML file, an optional
// .env file and BILLTRACE_* environment variables, in that order of
// increasing precedence. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultGoogleDocsExportURL is the HTML export endpoint of a Google Doc;
// %s is replaced by the document id.
const DefaultGoogleDocsExportURL = "https://docs.google.com/document/d/%s/export?format=html"

// Source kinds.
const (
	SourceFile = "file"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Config is the top-level configuration.
type Config struct {
	Matching  MatchingConfig  `yaml:"matching"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Render    RenderConfig    `yaml:"render"`
	Batch     BatchConfig     `yaml:"batch"`
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// MatchingConfig controls the anchor matcher. Enum values are kept as
// strings here and parsed by Validate and ComparatorOptions.
type MatchingConfig struct {
	// K is the anchor length in tokens.
	K int `yaml:"k"`

	// Policy is "exhaustive" or "skip-ahead".
	Policy string `yaml:"policy"`

	// Alignment is "alignment-naive" or "anchor-relative".
	Alignment string `yaml:"alignment"`

	// Variant is "cleaned" or "preserving".
	Variant string `yaml:"variant"`
}

type NormalizeConfig struct {
	RejoinHyphenated bool `yaml:"rejoin_hyphenated"`
}

// RenderConfig names the markup written around highlighted spans.
type RenderConfig struct {
	BlockTag       string `yaml:"block_tag"`
	HighlightTag   string `yaml:"highlight_tag"`
	HighlightClass string `yaml:"highlight_class"`
}

// BatchConfig describes the CSV layout and the worker pool.
type BatchConfig struct {
	IdentifierColumn string `yaml:"identifier_column"`
	TextColumn       string `yaml:"text_column"`
	OutputColumn     string `yaml:"output_column"`

	// Workers bounds concurrent comparisons; 0 means one per CPU.
	Workers int `yaml:"workers"`

	// ProgressEvery logs progress after this many records; 0 disables it.
	ProgressEvery int `yaml:"progress_every"`
}

// SourceConfig selects where reference documents come from.
type SourceConfig struct {
	// Kind is "file", "http" or "s3".
	Kind string `yaml:"kind"`

	// BaseDir resolves relative ids for the file source.
	BaseDir string `yaml:"base_dir"`

	HTTP HTTPSourceConfig `yaml:"http"`
	S3   S3SourceConfig   `yaml:"s3"`
}

// HTTPSourceConfig configures document export over HTTP.
type HTTPSourceConfig struct {
	// URLTemplate contains one %s for the document id.
	URLTemplate string `yaml:"url_template"`

	// CredentialsFile is an OAuth2 client credentials JSON file. Requests
	// are unauthenticated when empty.
	CredentialsFile string `yaml:"credentials_file"`

	// TokenFile is a saved OAuth2 token JSON file.
	TokenFile string `yaml:"token_file"`

	RateLimit    time.Duration `yaml:"rate_limit"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent"`
}

// S3SourceConfig configures an S3 or S3-compatible bucket.
type S3SourceConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// CacheConfig controls the on-disk reference cache. An empty Dir disables it.
type CacheConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls metric export. ListenAddr is only served while
// watching; Textfile is written after one-shot runs.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Textfile   string `yaml:"textfile"`
}

// DefaultConfig returns the configuration that reproduces the published
// highlighting.
func DefaultConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			K:         5,
			Policy:    "exhaustive",
			Alignment: "alignment-naive",
			Variant:   "cleaned",
		},
		Render: RenderConfig{
			BlockTag:       "p",
			HighlightTag:   "span",
			HighlightClass: "copied-language",
		},
		Batch: BatchConfig{
			IdentifierColumn: "state",
			TextColumn:       "text",
			OutputColumn:     "highlighted_markup",
			ProgressEvery:    10,
		},
		Source: SourceConfig{
			Kind: SourceFile,
			HTTP: HTTPSourceConfig{
				URLTemplate:  DefaultGoogleDocsExportURL,
				RateLimit:    time.Second,
				Timeout:      30 * time.Second,
				MaxRetries:   3,
				MaxBodyBytes: 10 << 20,
				UserAgent:    "billtrace/1.0",
			},
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), loads a
// .env file from the same directory if one exists, applies BILLTRACE_*
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	dotEnvDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		dotEnvDir = filepath.Dir(path)
	}

	if err := loadDotEnv(filepath.Join(dotEnvDir, ".env")); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports the variables of dotEnvPath that are not already set.
// A missing file is not an error.
func loadDotEnv(dotEnvPath string) error {
	if _, err := os.Stat(dotEnvPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(dotEnvPath); err != nil {
		return fmt.Errorf("loading %s: %w", dotEnvPath, err)
	}
	return nil
}
