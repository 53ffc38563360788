package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coolbeans/billtrace/pkg/compare"
	"github.com/coolbeans/billtrace/pkg/highlight"
	"github.com/coolbeans/billtrace/pkg/match"
)

// Validate reports every problem at once, each wrapped in ErrInvalid.
func (cfg *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(cfg.Matching.K >= 1, "matching.k must be at least 1, got %d", cfg.Matching.K)
	if _, err := match.ParseScanPolicy(cfg.Matching.Policy); err != nil {
		check(false, "matching.policy: %v", err)
	}
	if _, err := match.ParseAlignment(cfg.Matching.Alignment); err != nil {
		check(false, "matching.alignment: %v", err)
	}
	if _, err := compare.ParseVariant(cfg.Matching.Variant); err != nil {
		check(false, "matching.variant: %v", err)
	}

	check(cfg.Render.HighlightTag != "", "render.highlight_tag must not be empty")

	check(cfg.Batch.IdentifierColumn != "", "batch.identifier_column must not be empty")
	check(cfg.Batch.TextColumn != "", "batch.text_column must not be empty")
	check(cfg.Batch.OutputColumn != "", "batch.output_column must not be empty")
	check(cfg.Batch.IdentifierColumn != cfg.Batch.TextColumn,
		"batch.identifier_column and batch.text_column are both %q", cfg.Batch.TextColumn)
	check(cfg.Batch.Workers >= 0, "batch.workers must not be negative, got %d", cfg.Batch.Workers)
	check(cfg.Batch.ProgressEvery >= 0, "batch.progress_every must not be negative, got %d", cfg.Batch.ProgressEvery)

	switch cfg.Source.Kind {
	case SourceFile:
	case SourceHTTP:
		check(strings.Count(cfg.Source.HTTP.URLTemplate, "%s") == 1,
			"source.http.url_template must contain exactly one %%s, got %q", cfg.Source.HTTP.URLTemplate)
		check(cfg.Source.HTTP.TokenFile == "" || cfg.Source.HTTP.CredentialsFile != "",
			"source.http.token_file requires source.http.credentials_file")
		check(cfg.Source.HTTP.MaxRetries >= 0, "source.http.max_retries must not be negative")
	case SourceS3:
		check(cfg.Source.S3.Bucket != "", "source.s3.bucket is required for the s3 source")
	default:
		check(false, "source.kind must be file, http or s3, got %q", cfg.Source.Kind)
	}

	check(cfg.Cache.TTL >= 0, "cache.ttl must not be negative")
	check(cfg.Watch.Debounce >= 0, "watch.debounce must not be negative")

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		check(false, "logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		check(false, "logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	return errors.Join(problems...)
}

// ComparatorOptions converts the matching, normalize and render sections.
func (cfg *Config) ComparatorOptions() (compare.Options, error) {
	policy, err := match.ParseScanPolicy(cfg.Matching.Policy)
	if err != nil {
		return compare.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	alignment, err := match.ParseAlignment(cfg.Matching.Alignment)
	if err != nil {
		return compare.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	variant, err := compare.ParseVariant(cfg.Matching.Variant)
	if err != nil {
		return compare.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return compare.Options{
		K:                cfg.Matching.K,
		Policy:           policy,
		Alignment:        alignment,
		Variant:          variant,
		RejoinHyphenated: cfg.Normalize.RejoinHyphenated,
		Renderer: highlight.Renderer{
			BlockTag:       cfg.Render.BlockTag,
			HighlightTag:   cfg.Render.HighlightTag,
			HighlightClass: cfg.Render.HighlightClass,
		},
	}, nil
}
