package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coolbeans/billtrace/pkg/logger"
)

// DiskCache stores fetched documents as JSON files keyed by a SHA-256 hash
// of the cache key.
type DiskCache struct {
	cacheDir string
	cacheTTL time.Duration
}

// diskCacheEntry wraps a Document with an expiration timestamp.
type diskCacheEntry struct {
	Document  Document  `json:"document"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewDiskCache creates the cache directory if needed. A zero TTL keeps
// entries forever.
func NewDiskCache(cacheDir string, cacheTTL time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	return &DiskCache{
		cacheDir: cacheDir,
		cacheTTL: cacheTTL,
	}, nil
}

// Get returns the cached document for key if present and not expired.
func (cache *DiskCache) Get(key string) (*Document, bool) {
	cacheFilePath := cache.pathFor(key)

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		return nil, false
	}

	var entry diskCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(cacheFilePath)
		return nil, false
	}

	return &entry.Document, true
}

// Set stores document under key. The file is written to a temporary name
// and renamed so readers never see a partial entry.
func (cache *DiskCache) Set(key string, document *Document) error {
	entry := diskCacheEntry{Document: *document}
	if cache.cacheTTL > 0 {
		entry.ExpiresAt = time.Now().Add(cache.cacheTTL)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	cacheFilePath := cache.pathFor(key)
	temporaryPath := cacheFilePath + ".tmp"
	if err := os.WriteFile(temporaryPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", temporaryPath, err)
	}
	if err := os.Rename(temporaryPath, cacheFilePath); err != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf("failed to write cache file %s: %w", cacheFilePath, err)
	}

	return nil
}

// Invalidate removes the entry for key, if any.
func (cache *DiskCache) Invalidate(key string) error {
	if err := os.Remove(cache.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

func (cache *DiskCache) keyFor(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

func (cache *DiskCache) pathFor(key string) string {
	return filepath.Join(cache.cacheDir, cache.keyFor(key)+".json")
}

// CachedSource serves documents from Cache and fetches misses from Source.
// Namespace keeps ids of different sources apart in a shared directory.
type CachedSource struct {
	Source    Source
	Cache     *DiskCache
	Namespace string
}

func (cachedSource *CachedSource) Fetch(ctx context.Context, documentID string) (*Document, error) {
	key := cachedSource.Namespace + ":" + documentID
	log := logger.FromContext(ctx).With("component", "source", "id", documentID)

	if document, found := cachedSource.Cache.Get(key); found {
		log.Debug("reference served from cache")
		return document, nil
	}

	document, err := cachedSource.Source.Fetch(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := cachedSource.Cache.Set(key, document); err != nil {
		log.Warn("failed to cache reference", "error", err)
	}
	return document, nil
}
