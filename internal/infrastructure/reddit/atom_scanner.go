package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/scanner"
)

// AtomScanner reads the topic's Atom feed. It is the last-resort variant
// because feeds carry HTML bodies and no scores.
type AtomScanner struct {
	client *Client
	parser *gofeed.Parser
}

var _ scanner.Scanner = (*AtomScanner)(nil)

// NewAtomScanner builds the feed variant.
func NewAtomScanner(client *Client) *AtomScanner {
	return &AtomScanner{client: client, parser: gofeed.NewParser()}
}

// Name identifies the variant inside the registry.
func (a *AtomScanner) Name() string {
	return "atom"
}

// Scan fetches /r/{topic}/.rss and maps entries to items.
func (a *AtomScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.SourceItem, error) {
	path := fmt.Sprintf("/r/%s/.rss", url.PathEscape(req.Topic))
	body, err := a.client.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("atom feed: %w", err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", domain.ErrMalformedUpstream, err)
	}

	items := make([]domain.SourceItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if req.Limit > 0 && len(items) >= req.Limit {
			break
		}
		id := strings.TrimPrefix(strings.TrimSpace(entry.GUID), "t3_")
		if id == "" || strings.TrimSpace(entry.Title) == "" {
			return nil, fmt.Errorf("%w: feed entry lacks id or title", domain.ErrMalformedUpstream)
		}

		payload, err := json.Marshal(map[string]string{
			"id":    id,
			"title": entry.Title,
			"link":  entry.Link,
		})
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}

		item := domain.SourceItem{
			ExternalID: id,
			Topic:      req.Topic,
			Title:      strings.TrimSpace(entry.Title),
			Payload:    payload,
		}
		content := entry.Content
		if content == "" {
			content = entry.Description
		}
		if text := htmlText(content); text != "" {
			item.Body = &text
		}
		items = append(items, item)
	}
	return items, nil
}
