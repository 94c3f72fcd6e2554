package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/observability"
	"solana-swap-service/internal/storage"
)

// DefaultTTL is how long a fetched price stays valid in the cache store.
const DefaultTTL = 10 * time.Second

// Service is the cache-aside price lookup. Concurrent misses for the same
// pair are coalesced so at most one upstream fetch runs per key.
type Service struct {
	store  Store
	oracle Oracle
	ticks  storage.PriceTickStore // optional archive, may be nil
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithTTL overrides the cache validity window.
func WithTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = d
	}
}

// WithTickStore attaches a price observation archive. Writes are async and
// best-effort.
func WithTickStore(ts storage.PriceTickStore) ServiceOption {
	return func(s *Service) {
		s.ticks = ts
	}
}

// NewService creates a price service over the given cache store and oracle.
func NewService(store Store, oracle Oracle, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		oracle: oracle,
		ttl:    DefaultTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the price for pair, tagged with its source. A cache hit never
// contacts the oracle. On a miss the upstream value is stored with the TTL
// before returning; an upstream failure fails the request rather than
// serving stale data, and is never cached.
func (s *Service) Get(ctx context.Context, pair domain.TradingPair) (*domain.PricePoint, error) {
	key := pair.CacheKey()

	cached, ok, cacheErr := s.store.Get(ctx, key)
	if cacheErr != nil {
		// Degraded mode: fall through to the upstream fetch.
		observability.RecordCacheStoreError()
		s.logger.Warn("price cache store unavailable", "key", key, "error", cacheErr)
	}
	if ok {
		entry, err := decodeCacheEntry(cached)
		if err == nil {
			observability.RecordPriceLookup(string(domain.SourceCache))
			return &domain.PricePoint{
				Pair:      pair,
				Price:     entry.price,
				Source:    domain.SourceCache,
				FetchedAt: entry.fetchedAt,
			}, nil
		}
		// Unparseable entries are treated as misses and overwritten below.
		s.logger.Warn("discarding unparseable cache entry", "key", key, "value", cached)
	}

	// The fetch is detached from this caller's cancellation: followers
	// coalesced onto it must not fail because the leader hung up. The
	// oracle's own HTTP timeout still bounds the call.
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetchAndStore(context.WithoutCancel(ctx), pair, key)
	})
	if shared {
		observability.RecordCoalescedRequest()
	}
	if err != nil {
		if cacheErr != nil {
			err = fmt.Errorf("%w; %w", domain.ErrCacheUnavailable, err)
		}
		observability.RecordPriceLookupError(domain.FailureReason(err))
		return nil, err
	}

	fetched := v.(fetchResult)
	observability.RecordPriceLookup(string(domain.SourceUpstream))
	return &domain.PricePoint{
		Pair:      pair,
		Price:     fetched.price,
		Source:    domain.SourceUpstream,
		FetchedAt: fetched.fetchedAt,
	}, nil
}

// cacheEntry is the stored form of one price. The fetch timestamp rides
// along so cache hits report when the price actually left the upstream.
type cacheEntry struct {
	Price     string `json:"price"`
	FetchedAt int64  `json:"fetched_at"` // Unix timestamp in milliseconds
}

type fetchResult struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

func decodeCacheEntry(raw string) (fetchResult, error) {
	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return fetchResult{}, err
	}
	price, err := decimal.NewFromString(entry.Price)
	if err != nil {
		return fetchResult{}, err
	}
	return fetchResult{price: price, fetchedAt: time.UnixMilli(entry.FetchedAt)}, nil
}

// fetchAndStore performs the upstream fetch, caches the result, and
// archives the observation. Runs at most once per key at a time.
func (s *Service) fetchAndStore(ctx context.Context, pair domain.TradingPair, key string) (any, error) {
	start := time.Now()
	price, err := s.oracle.Price(ctx, pair)
	lag := time.Since(start)
	observability.RecordUpstreamFetch(lag.Seconds())
	if err != nil {
		return nil, err
	}

	fetchedAt := time.Now()
	raw, err := json.Marshal(cacheEntry{Price: price.String(), FetchedAt: fetchedAt.UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	if setErr := s.store.Set(ctx, key, string(raw), s.ttl); setErr != nil {
		// The caller still gets the fresh price; only reuse is lost.
		observability.RecordCacheStoreError()
		s.logger.Warn("failed to cache price", "key", key, "error", setErr)
	}

	if s.ticks != nil {
		go s.archiveTick(pair, price, lag)
	}
	return fetchResult{price: price, fetchedAt: fetchedAt}, nil
}

// archiveTick appends one observation to the tick archive. Best-effort;
// runs detached from the request.
func (s *Service) archiveTick(pair domain.TradingPair, price decimal.Decimal, lag time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, _ := price.Float64()
	err := s.ticks.InsertBulk(ctx, []*domain.PriceTick{{
		Pair:        pair.String(),
		Price:       f,
		ObservedAt:  time.Now().UnixMilli(),
		UpstreamLag: lag.Milliseconds(),
	}})
	if err != nil {
		s.logger.Warn("failed to archive price tick", "pair", pair.String(), "error", err)
	}
}
