package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
	"IdeaScanner/internal/scanner"
)

// FetchResult carries items and where the gateway found them.
type FetchResult struct {
	Items  []domain.SourceItem `json:"items"`
	Origin domain.FetchOrigin  `json:"origin"`
}

// GatewayDeps wires the cache tiers and upstream variants.
type GatewayDeps struct {
	Store        ports.ItemStore
	Cache        ports.ItemCache
	Registry     *scanner.Registry
	Variants     []string
	TTL          time.Duration
	StaleLimit   int
	ListingLimit int
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Gateway resolves items for a topic: hot cache, fresh store rows, live
// variants in fixed order, then stale rows.
type Gateway struct {
	store        ports.ItemStore
	cache        ports.ItemCache
	scanners     []scanner.Scanner
	ttl          time.Duration
	staleLimit   int
	listingLimit int
	clock        func() time.Time
	logger       *slog.Logger
}

var _ ports.ItemSource = (*Gateway)(nil)

// NewGateway resolves the configured variants against the registry.
func NewGateway(deps GatewayDeps) (*Gateway, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("gateway: item store is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("gateway: scanner registry is required")
	}
	scanners, err := deps.Registry.Ordered(deps.Variants)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	g := &Gateway{
		store:        deps.Store,
		cache:        deps.Cache,
		scanners:     scanners,
		ttl:          deps.TTL,
		staleLimit:   deps.StaleLimit,
		listingLimit: deps.ListingLimit,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
	if g.ttl <= 0 {
		g.ttl = 12 * time.Hour
	}
	if g.staleLimit <= 0 {
		g.staleLimit = 50
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// Fetch implements ports.ItemSource.
func (g *Gateway) Fetch(ctx context.Context, topic string) ([]domain.SourceItem, error) {
	res, err := g.FetchWithOrigin(ctx, topic)
	return res.Items, err
}

// FetchWithOrigin returns items newest first. It fails with ErrSourceUnavailable
// only when every variant returned a malformed payload and nothing is stored.
func (g *Gateway) FetchWithOrigin(ctx context.Context, topic string) (FetchResult, error) {
	topic = domain.NormalizeTopic(topic)
	now := g.clock().UTC()

	if items, ok := g.fromHotTier(ctx, topic, now.Add(-g.ttl)); ok {
		return FetchResult{Items: items, Origin: domain.OriginCache}, nil
	}

	fresh, err := g.store.FreshItems(ctx, topic, now.Add(-g.ttl))
	if err != nil {
		return FetchResult{}, fmt.Errorf("read fresh items: %w", err)
	}
	if len(fresh) > 0 {
		g.logger.Debug("serving fresh items from store", "topic", topic, "count", len(fresh))
		g.toHotTier(ctx, topic, fresh, now)
		return FetchResult{Items: fresh, Origin: domain.OriginCache}, nil
	}

	live, allMalformed := g.fetchLive(ctx, topic)
	if len(live) > 0 {
		for i := range live {
			live[i].FetchedAt = now
			if live[i].Topic == "" {
				live[i].Topic = topic
			}
		}
		if err := g.store.UpsertItems(ctx, live); err != nil {
			g.logger.Warn("write-through of live items failed", "topic", topic, "err", err)
		}
		g.toHotTier(ctx, topic, live, now)
		return FetchResult{Items: live, Origin: domain.OriginLive}, nil
	}
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	stale, err := g.store.RecentItems(ctx, topic, g.staleLimit)
	if err != nil {
		return FetchResult{}, fmt.Errorf("read stale items: %w", err)
	}
	if len(stale) > 0 {
		g.logger.Warn("upstream unavailable, serving stale items", "topic", topic, "count", len(stale))
		return FetchResult{Items: stale, Origin: domain.OriginStale}, nil
	}

	if allMalformed {
		return FetchResult{Origin: domain.OriginUnavailable},
			fmt.Errorf("topic %s: %w", topic, domain.ErrSourceUnavailable)
	}
	g.logger.Warn("no items found anywhere", "topic", topic)
	return FetchResult{Items: []domain.SourceItem{}, Origin: domain.OriginEmpty}, nil
}

// fetchLive tries variants in order and stops at the first non-empty result.
// allMalformed is true when every variant failed structural validation.
func (g *Gateway) fetchLive(ctx context.Context, topic string) ([]domain.SourceItem, bool) {
	allMalformed := len(g.scanners) > 0
	req := scanner.Request{Topic: topic, Limit: g.listingLimit}
	for _, s := range g.scanners {
		items, err := s.Scan(ctx, req)
		switch {
		case err != nil:
			if !errors.Is(err, domain.ErrMalformedUpstream) {
				allMalformed = false
			}
			g.logger.Warn("endpoint variant failed", "topic", topic, "variant", s.Name(), "err", err)
		case len(items) == 0:
			allMalformed = false
			g.logger.Debug("endpoint variant returned nothing", "topic", topic, "variant", s.Name())
		default:
			g.logger.Debug("endpoint variant succeeded", "topic", topic, "variant", s.Name(), "count", len(items))
			return items, false
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, allMalformed
}

// fromHotTier applies the same fetched_at cutoff as the store read.
func (g *Gateway) fromHotTier(ctx context.Context, topic string, cutoff time.Time) ([]domain.SourceItem, bool) {
	if g.cache == nil {
		return nil, false
	}
	items, ok, err := g.cache.GetItems(ctx, topic)
	if err != nil {
		g.logger.Warn("hot cache read failed", "topic", topic, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	fresh := make([]domain.SourceItem, 0, len(items))
	for _, it := range items {
		if !it.FetchedAt.Before(cutoff) {
			fresh = append(fresh, it)
		}
	}
	return fresh, len(fresh) > 0
}

// toHotTier caches items until the oldest of them leaves the TTL window.
func (g *Gateway) toHotTier(ctx context.Context, topic string, items []domain.SourceItem, now time.Time) {
	if g.cache == nil || len(items) == 0 {
		return
	}
	oldest := items[0].FetchedAt
	for _, it := range items[1:] {
		if it.FetchedAt.Before(oldest) {
			oldest = it.FetchedAt
		}
	}
	ttl := oldest.Add(g.ttl).Sub(now)
	if ttl <= 0 {
		return
	}
	if err := g.cache.SetItems(ctx, topic, items, ttl); err != nil {
		g.logger.Warn("hot cache write failed", "topic", topic, "err", err)
	}
}

// fetchFrom adapts any ItemSource to a FetchResult. ErrSourceUnavailable
// becomes an empty, unavailable result so the run can still stamp.
func fetchFrom(ctx context.Context, src ports.ItemSource, topic string) (FetchResult, error) {
	var (
		res FetchResult
		err error
	)
	if g, ok := src.(interface {
		FetchWithOrigin(context.Context, string) (FetchResult, error)
	}); ok {
		res, err = g.FetchWithOrigin(ctx, topic)
	} else {
		res.Items, err = src.Fetch(ctx, topic)
		res.Origin = domain.OriginLive
		if err == nil && len(res.Items) == 0 {
			res.Origin = domain.OriginEmpty
		}
	}
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return FetchResult{Items: []domain.SourceItem{}, Origin: domain.OriginUnavailable}, nil
	}
	if err != nil {
		return FetchResult{}, err
	}
	if res.Items == nil {
		res.Items = []domain.SourceItem{}
	}
	return res, nil
}
