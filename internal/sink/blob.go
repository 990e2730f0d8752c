// Package sink writes output records to a storage.BlobStore as JSON files.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/about-harvester/internal/scraper"
	"github.com/JakeFAU/about-harvester/internal/storage"
)

const (
	contentType = "application/json; charset=utf-8"
	extension   = ".json"
)

// BlobSink encodes each record as indented JSON and stores it as
// <name>.json. It satisfies scraper.RecordSink.
type BlobSink struct {
	store storage.BlobStore
}

// NewBlobSink wraps store.
func NewBlobSink(store storage.BlobStore) (*BlobSink, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	return &BlobSink{store: store}, nil
}

// Save writes record and returns the stored object's URI.
func (s *BlobSink) Save(ctx context.Context, name string, record scraper.Record) (string, error) {
	body, err := Encode(record)
	if err != nil {
		return "", err
	}
	uri, err := s.store.PutObject(ctx, name+extension, contentType, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("store %s%s: %w", name, extension, err)
	}
	return uri, nil
}

// Encode renders record with two-space indentation and without escaping
// HTML characters or non-ASCII text.
func Encode(record scraper.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
