package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource tags where a returned price came from.
type PriceSource string

const (
	SourceCache    PriceSource = "cache"
	SourceUpstream PriceSource = "upstream"
)

// TradingPair is an ordered (base, quote) symbol pair. Immutable; used as
// the cache key and as input to price requests.
type TradingPair struct {
	Base  string
	Quote string
}

// ParsePair parses "SOL-USDT" style input into a TradingPair.
// A bare symbol is quoted against USD.
func ParsePair(s string) (TradingPair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return TradingPair{}, fmt.Errorf("%w: empty pair", ErrUnsupportedSymbol)
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) == 1 {
		return TradingPair{Base: parts[0], Quote: "USD"}, nil
	}
	if parts[0] == "" || parts[1] == "" {
		return TradingPair{}, fmt.Errorf("%w: malformed pair %q", ErrUnsupportedSymbol, s)
	}
	return TradingPair{Base: parts[0], Quote: parts[1]}, nil
}

// String returns the canonical "BASE-QUOTE" form.
func (p TradingPair) String() string {
	return p.Base + "-" + p.Quote
}

// CacheKey returns the cache store key for this pair.
// Matches the "price:<pair>" keyspace used by the cache store.
func (p TradingPair) CacheKey() string {
	return "price:" + p.String()
}

// PricePoint is a price returned to a caller, tagged with its origin.
// A cached point is never older than the store TTL; expiry is enforced by
// the store itself, not by this process.
type PricePoint struct {
	Pair      TradingPair
	Price     decimal.Decimal
	Source    PriceSource
	FetchedAt time.Time
}

// PriceTick is one upstream price observation, archived for offline
// analysis. Never read back by the serving path.
type PriceTick struct {
	Pair        string  // canonical "BASE-QUOTE"
	Price       float64 // observed price
	ObservedAt  int64   // Unix timestamp in milliseconds
	UpstreamLag int64   // upstream fetch duration in milliseconds
}
