package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// ItemCache keeps the latest fetched items per topic in Redis.
type ItemCache struct {
	rdb    *goredis.Client
	prefix string
}

var _ ports.ItemCache = (*ItemCache)(nil)

// New connects and pings Redis.
func New(ctx context.Context, opts Options) (*ItemCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &ItemCache{rdb: rdb, prefix: opts.Prefix}, nil
}

// Close releases the client.
func (c *ItemCache) Close() error {
	return c.rdb.Close()
}

// GetItems returns cached items and whether the key existed.
func (c *ItemCache) GetItems(ctx context.Context, topic string) ([]domain.SourceItem, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(topic)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	items, err := decodeItems(raw)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// SetItems stores items with the given TTL.
func (c *ItemCache) SetItems(ctx context.Context, topic string, items []domain.SourceItem, ttl time.Duration) error {
	raw, err := encodeItems(items)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(topic), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *ItemCache) key(topic string) string {
	return c.prefix + domain.NormalizeTopic(topic)
}

type cachedItem struct {
	ExternalID string          `json:"id"`
	Topic      string          `json:"topic"`
	Title      string          `json:"title"`
	Body       *string         `json:"body,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

func encodeItems(items []domain.SourceItem) ([]byte, error) {
	out := make([]cachedItem, 0, len(items))
	for _, it := range items {
		out = append(out, cachedItem(it))
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode cached items: %w", err)
	}
	return raw, nil
}

func decodeItems(raw []byte) ([]domain.SourceItem, error) {
	var in []cachedItem
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode cached items: %w", err)
	}
	items := make([]domain.SourceItem, 0, len(in))
	for _, it := range in {
		items = append(items, domain.SourceItem(it))
	}
	return items, nil
}
