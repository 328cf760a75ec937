package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/scanner"
)

// Listing sort orders exposed as endpoint variants.
const (
	SortRising = "rising"
	SortHot    = "hot"
	SortNew    = "new"
)

// ListingScanner reads one JSON listing (rising, hot or new) for a topic.
type ListingScanner struct {
	client *Client
	sort   string
}

var _ scanner.Scanner = (*ListingScanner)(nil)

// NewListingScanner builds a scanner for the given sort order.
func NewListingScanner(client *Client, sort string) *ListingScanner {
	return &ListingScanner{client: client, sort: sort}
}

// Name identifies the variant inside the registry.
func (l *ListingScanner) Name() string {
	return l.sort
}

type listingEnvelope struct {
	Data *struct {
		Children []listingChild `json:"children"`
	} `json:"data"`
}

type listingChild struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML *string `json:"selftext_html"`
	Subreddit    string  `json:"subreddit"`
}

// Scan fetches /r/{topic}/{sort}.json. Structural problems are reported as ErrMalformedUpstream.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.SourceItem, error) {
	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	path := fmt.Sprintf("/r/%s/%s.json", url.PathEscape(req.Topic), l.sort)

	body, err := l.client.get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("%s listing: %w", l.sort, err)
	}
	return parseListing(body, req.Topic)
}

func parseListing(body []byte, topic string) ([]domain.SourceItem, error) {
	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", domain.ErrMalformedUpstream, err)
	}
	if env.Data == nil || env.Data.Children == nil {
		return nil, fmt.Errorf("%w: listing has no children", domain.ErrMalformedUpstream)
	}

	items := make([]domain.SourceItem, 0, len(env.Data.Children))
	for i, child := range env.Data.Children {
		var post postData
		if err := json.Unmarshal(child.Data, &post); err != nil {
			return nil, fmt.Errorf("%w: child %d: %v", domain.ErrMalformedUpstream, i, err)
		}
		if strings.TrimSpace(post.ID) == "" || strings.TrimSpace(post.Title) == "" {
			return nil, fmt.Errorf("%w: child %d lacks id or title", domain.ErrMalformedUpstream, i)
		}

		item := domain.SourceItem{
			ExternalID: post.ID,
			Topic:      topic,
			Title:      strings.TrimSpace(post.Title),
			Payload:    append(json.RawMessage(nil), child.Data...),
		}
		if post.Subreddit != "" {
			item.Topic = domain.NormalizeTopic(post.Subreddit)
		}

		text := strings.TrimSpace(post.Selftext)
		if text == "" && post.SelftextHTML != nil {
			text = htmlText(*post.SelftextHTML)
		}
		if text != "" {
			item.Body = &text
		}
		items = append(items, item)
	}
	return items, nil
}
