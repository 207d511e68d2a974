package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"transcriber/history"
)

// ObjectStore is the slice of S3 the archiver needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// Archiver writes finished transcripts to object storage, one JSON record
// and one plain-text rendering per job.
type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string
}

// NewArchiver creates an archiver targeting bucket. prefix may be empty; a
// non-empty prefix is normalized to end with a single slash.
func NewArchiver(store ObjectStore, bucket, prefix string) *Archiver {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Archiver{store: store, bucket: bucket, prefix: prefix}
}

// Archive uploads item as transcripts/<id>.json plus a .txt sibling with
// the plain transcript text. Items without content get only the JSON record.
// A job id that is already archived is left untouched.
func (a *Archiver) Archive(ctx context.Context, item history.Item) error {
	key := a.prefix + "transcripts/" + item.ID

	archived, err := a.store.Exists(ctx, a.bucket, key+".json")
	if err != nil {
		return fmt.Errorf("failed to check for existing archive: %w", err)
	}
	if archived {
		return nil
	}

	body, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript record: %w", err)
	}

	if err := a.store.Put(ctx, a.bucket, key+".json", strings.NewReader(string(body)), "application/json"); err != nil {
		return fmt.Errorf("failed to upload transcript record: %w", err)
	}

	if item.Content == nil {
		return nil
	}
	text := item.Content.PlainText()
	if err := a.store.Put(ctx, a.bucket, key+".txt", strings.NewReader(text), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("failed to upload transcript text: %w", err)
	}
	return nil
}
