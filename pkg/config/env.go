package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "BILLTRACE_"

// applyEnvOverrides reads BILLTRACE_* variables and overrides the
// corresponding fields. Empty variables are ignored; unparsable numbers,
// booleans and durations are reported.
func applyEnvOverrides(cfg *Config) error {
	overrides := envOverrides{}

	overrides.integer("MATCHING_K", &cfg.Matching.K)
	overrides.text("MATCHING_POLICY", &cfg.Matching.Policy)
	overrides.text("MATCHING_ALIGNMENT", &cfg.Matching.Alignment)
	overrides.text("MATCHING_VARIANT", &cfg.Matching.Variant)
	overrides.boolean("NORMALIZE_REJOIN_HYPHENATED", &cfg.Normalize.RejoinHyphenated)

	overrides.text("RENDER_BLOCK_TAG", &cfg.Render.BlockTag)
	overrides.text("RENDER_HIGHLIGHT_TAG", &cfg.Render.HighlightTag)
	overrides.text("RENDER_HIGHLIGHT_CLASS", &cfg.Render.HighlightClass)

	overrides.text("BATCH_IDENTIFIER_COLUMN", &cfg.Batch.IdentifierColumn)
	overrides.text("BATCH_TEXT_COLUMN", &cfg.Batch.TextColumn)
	overrides.text("BATCH_OUTPUT_COLUMN", &cfg.Batch.OutputColumn)
	overrides.integer("BATCH_WORKERS", &cfg.Batch.Workers)
	overrides.integer("BATCH_PROGRESS_EVERY", &cfg.Batch.ProgressEvery)

	overrides.text("SOURCE_KIND", &cfg.Source.Kind)
	overrides.text("SOURCE_BASE_DIR", &cfg.Source.BaseDir)
	overrides.text("SOURCE_HTTP_URL_TEMPLATE", &cfg.Source.HTTP.URLTemplate)
	overrides.text("SOURCE_HTTP_CREDENTIALS_FILE", &cfg.Source.HTTP.CredentialsFile)
	overrides.text("SOURCE_HTTP_TOKEN_FILE", &cfg.Source.HTTP.TokenFile)
	overrides.duration("SOURCE_HTTP_RATE_LIMIT", &cfg.Source.HTTP.RateLimit)
	overrides.duration("SOURCE_HTTP_TIMEOUT", &cfg.Source.HTTP.Timeout)
	overrides.integer("SOURCE_HTTP_MAX_RETRIES", &cfg.Source.HTTP.MaxRetries)
	overrides.text("SOURCE_S3_BUCKET", &cfg.Source.S3.Bucket)
	overrides.text("SOURCE_S3_PREFIX", &cfg.Source.S3.Prefix)
	overrides.text("SOURCE_S3_REGION", &cfg.Source.S3.Region)
	overrides.text("SOURCE_S3_ENDPOINT", &cfg.Source.S3.Endpoint)
	overrides.boolean("SOURCE_S3_USE_PATH_STYLE", &cfg.Source.S3.UsePathStyle)

	overrides.text("CACHE_DIR", &cfg.Cache.Dir)
	overrides.duration("CACHE_TTL", &cfg.Cache.TTL)
	overrides.duration("WATCH_DEBOUNCE", &cfg.Watch.Debounce)

	overrides.text("LOGGING_LEVEL", &cfg.Logging.Level)
	overrides.text("LOGGING_FORMAT", &cfg.Logging.Format)
	overrides.text("METRICS_LISTEN_ADDR", &cfg.Metrics.ListenAddr)
	overrides.text("METRICS_TEXTFILE", &cfg.Metrics.Textfile)

	return overrides.err
}

// envOverrides keeps the first parse error so the override list reads as a
// flat table.
type envOverrides struct {
	err error
}

func (overrides *envOverrides) lookup(name string) (string, bool) {
	value := os.Getenv(EnvPrefix + name)
	return value, value != "" && overrides.err == nil
}

func (overrides *envOverrides) fail(name, value string, err error) {
	overrides.err = fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, EnvPrefix, name, value, err)
}

func (overrides *envOverrides) text(name string, target *string) {
	if value, ok := overrides.lookup(name); ok {
		*target = value
	}
}

func (overrides *envOverrides) integer(name string, target *int) {
	value, ok := overrides.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		overrides.fail(name, value, err)
		return
	}
	*target = parsed
}

func (overrides *envOverrides) boolean(name string, target *bool) {
	value, ok := overrides.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		overrides.fail(name, value, err)
		return
	}
	*target = parsed
}

func (overrides *envOverrides) duration(name string, target *time.Duration) {
	value, ok := overrides.lookup(name)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		overrides.fail(name, value, err)
		return
	}
	*target = parsed
}
