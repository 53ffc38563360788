// Package source acquires reference documents as plain text. A document is
// addressed by an identifier whose meaning depends on the source: a file
// path, a Google Docs id, or an S3 object key.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolbeans/billtrace/pkg/config"
)

// ErrNotFound is returned when the identifier names no document.
var ErrNotFound = errors.New("document not found")

// Document is an acquired reference document.
type Document struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Source produces plain text given a document identifier.
type Source interface {
	Fetch(ctx context.Context, documentID string) (*Document, error)
}

// New builds the source selected by sourceConfig, wrapped in a disk cache
// when cacheConfig.Dir is set.
func New(ctx context.Context, sourceConfig config.SourceConfig, cacheConfig config.CacheConfig) (Source, error) {
	var base Source
	switch sourceConfig.Kind {
	case config.SourceFile, "":
		// Local files are never cached.
		return &FileSource{BaseDir: sourceConfig.BaseDir}, nil

	case config.SourceHTTP:
		httpSource, err := NewHTTPSourceFromConfig(ctx, sourceConfig.HTTP)
		if err != nil {
			return nil, err
		}
		base = httpSource

	case config.SourceS3:
		client, err := NewS3Client(ctx, sourceConfig.S3)
		if err != nil {
			return nil, err
		}
		base = NewS3Source(client, sourceConfig.S3.Bucket, sourceConfig.S3.Prefix)

	default:
		return nil, fmt.Errorf("unknown source kind %q", sourceConfig.Kind)
	}

	if cacheConfig.Dir == "" {
		return base, nil
	}
	cache, err := NewDiskCache(cacheConfig.Dir, cacheConfig.TTL)
	if err != nil {
		return nil, err
	}
	return &CachedSource{Source: base, Cache: cache, Namespace: sourceConfig.Kind}, nil
}

// textFromBody converts a fetched body to plain text according to its
// content type. Unknown types are treated as HTML, which leaves plain text
// without tags unchanged.
func textFromBody(body []byte, contentType string) string {
	if strings.Contains(contentType, "text/plain") {
		return string(body)
	}
	return ExtractText(body)
}
