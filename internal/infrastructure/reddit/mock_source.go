package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// mockRecord is the on-disk shape of one item in the mock file.
type mockRecord struct {
	ExternalID string          `json:"external_id"`
	Topic      string          `json:"topic"`
	Title      string          `json:"title"`
	Body       *string         `json:"body,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// FileSource serves items from a JSON file written by WriteMockFile.
type FileSource struct {
	path string
}

var _ ports.ItemSource = (*FileSource)(nil)

// NewFileSource reads items from path on every Fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch returns file items tagged with topic, in file order.
func (f *FileSource) Fetch(ctx context.Context, topic string) ([]domain.SourceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: mock file %s not found, run sync-mocks first", domain.ErrSourceUnavailable, f.path)
		}
		return nil, fmt.Errorf("read mock file: %w", err)
	}

	var records []mockRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: mock file: %v", domain.ErrMalformedUpstream, err)
	}

	items := make([]domain.SourceItem, 0, len(records))
	for _, rec := range records {
		if topic != "" && domain.NormalizeTopic(rec.Topic) != topic {
			continue
		}
		items = append(items, domain.SourceItem{
			ExternalID: rec.ExternalID,
			Topic:      domain.NormalizeTopic(rec.Topic),
			Title:      rec.Title,
			Body:       rec.Body,
			Payload:    rec.Payload,
			FetchedAt:  rec.FetchedAt,
		})
	}
	return items, nil
}

// WriteMockFile snapshots items into path, creating parent directories.
func WriteMockFile(path string, items []domain.SourceItem) error {
	records := make([]mockRecord, 0, len(items))
	for _, it := range items {
		records = append(records, mockRecord{
			ExternalID: it.ExternalID,
			Topic:      it.Topic,
			Title:      it.Title,
			Body:       it.Body,
			Payload:    it.Payload,
			FetchedAt:  it.FetchedAt.UTC(),
		})
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mock items: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create mock dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write mock file: %w", err)
	}
	return nil
}
