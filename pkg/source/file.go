package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileSource reads documents from the local filesystem. Relative ids are
// resolved against BaseDir. Files ending in .html or .htm are converted to
// text with ExtractText; anything else is read as plain text.
type FileSource struct {
	BaseDir string
}

func (fileSource *FileSource) Fetch(ctx context.Context, documentID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("empty document id")
	}

	documentPath := documentID
	if !filepath.IsAbs(documentPath) && fileSource.BaseDir != "" {
		documentPath = filepath.Join(fileSource.BaseDir, documentPath)
	}

	content, err := os.ReadFile(documentPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", documentPath, err)
	}

	contentType := "text/plain"
	switch strings.ToLower(filepath.Ext(documentPath)) {
	case ".html", ".htm":
		contentType = "text/html"
	}

	return &Document{
		ID:          documentID,
		Text:        textFromBody(content, contentType),
		ContentType: contentType,
		FetchedAt:   time.Now(),
	}, nil
}
