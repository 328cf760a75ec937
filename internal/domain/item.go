package domain

import (
	"encoding/json"
	"time"
)

// SourceItem is a discussion post cached from upstream. The store keys it by ExternalID.
type SourceItem struct {
	ExternalID string
	Topic      string
	Title      string
	Body       *string
	Payload    json.RawMessage
	FetchedAt  time.Time
}

// BodyText returns the body or an empty string when absent.
func (s SourceItem) BodyText() string {
	if s.Body == nil {
		return ""
	}
	return *s.Body
}

// ItemIDs collects external ids in input order.
func ItemIDs(items []SourceItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ExternalID)
	}
	return ids
}

// FetchOrigin tells where the gateway found the items it returned.
type FetchOrigin string

const (
	OriginCache       FetchOrigin = "cache"
	OriginLive        FetchOrigin = "live"
	OriginStale       FetchOrigin = "stale"
	OriginEmpty       FetchOrigin = "empty"
	OriginUnavailable FetchOrigin = "unavailable"
)
