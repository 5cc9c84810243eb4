package storage

import (
	"context"
	"io"
)

// Uploader stores a synthesized-answer artifact and returns a URL a thin
// client can fetch. Used only by the legacy single-audio event.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error)
	Close() error
}
