package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Reader fetches a topic's last_synced_at. A topic that does not exist yet reads as nil.
type Reader interface {
	LastSynced(ctx context.Context, topic string) (*time.Time, error)
}

// StoreReader reads straight from the topic store.
type StoreReader struct {
	Topics ports.TopicStore
}

func (r StoreReader) LastSynced(ctx context.Context, topic string) (*time.Time, error) {
	t, err := r.Topics.GetTopic(ctx, domain.NormalizeTopic(topic))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t.LastSyncedAt, nil
}

// HTTPReader polls GET {base}/api/topics/{name}.
type HTTPReader struct {
	base   string
	client *http.Client
}

// NewHTTPReader targets a running API server.
func NewHTTPReader(base string, client *http.Client) *HTTPReader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPReader{base: strings.TrimRight(base, "/"), client: client}
}

func (r *HTTPReader) LastSynced(ctx context.Context, topic string) (*time.Time, error) {
	endpoint := r.base + "/api/topics/" + url.PathEscape(domain.NormalizeTopic(topic))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get topic: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		LastSyncedAt *time.Time `json:"last_synced_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode topic: %w", err)
	}
	return payload.LastSyncedAt, nil
}

// Trigger asks the API server to start a run and returns the run id.
func (r *HTTPReader) Trigger(ctx context.Context, topic string) (string, error) {
	body, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+"/api/sync", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("trigger sync: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("trigger sync: status %d", resp.StatusCode)
	}
	var out struct {
		RunID string `json:"run_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode trigger: %w", err)
	}
	return out.RunID, nil
}
