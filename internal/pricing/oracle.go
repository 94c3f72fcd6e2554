package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"solana-swap-service/internal/domain"
)

// Oracle is the upstream price source.
type Oracle interface {
	// Price returns the current price of pair.Base quoted in pair.Quote.
	Price(ctx context.Context, pair domain.TradingPair) (decimal.Decimal, error)
}

// Default Jupiter price API configuration.
const (
	DefaultPriceURL      = "https://api.jup.ag/price/v2"
	DefaultOracleTimeout = 10 * time.Second
)

// JupiterOracle queries the Jupiter price API. Prices are keyed by mint
// address, so symbols are resolved through the token registry first.
type JupiterOracle struct {
	baseURL string
	client  *http.Client
	tokens  *domain.Registry
}

// OracleOption configures JupiterOracle.
type OracleOption func(*JupiterOracle)

// WithOracleURL overrides the price API base URL.
func WithOracleURL(u string) OracleOption {
	return func(o *JupiterOracle) {
		o.baseURL = u
	}
}

// WithOracleTimeout sets the HTTP timeout.
func WithOracleTimeout(d time.Duration) OracleOption {
	return func(o *JupiterOracle) {
		o.client.Timeout = d
	}
}

// NewJupiterOracle creates a Jupiter price API client.
func NewJupiterOracle(tokens *domain.Registry, opts ...OracleOption) *JupiterOracle {
	o := &JupiterOracle{
		baseURL: DefaultPriceURL,
		client:  &http.Client{Timeout: DefaultOracleTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compile-time interface check.
var _ Oracle = (*JupiterOracle)(nil)

// priceResponse is the Jupiter price API v2 body.
type priceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// Price returns the current price of pair.Base quoted in pair.Quote.
// The API defaults to USD when no vsToken is given.
func (o *JupiterOracle) Price(ctx context.Context, pair domain.TradingPair) (decimal.Decimal, error) {
	base, err := o.tokens.Resolve(pair.Base)
	if err != nil {
		return decimal.Zero, err
	}

	q := url.Values{}
	q.Set("ids", base.Mint)
	if pair.Quote != "" && pair.Quote != "USD" {
		quote, err := o.tokens.Resolve(pair.Quote)
		if err != nil {
			return decimal.Zero, err
		}
		q.Set("vsToken", quote.Mint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode body: %v", domain.ErrUpstreamUnavailable, err)
	}

	entry := parsed.Data[base.Mint]
	if entry == nil || entry.Price == "" {
		return decimal.Zero, fmt.Errorf("%w: no price for %s", domain.ErrUpstreamUnavailable, pair.Base)
	}

	price, err := decimal.NewFromString(entry.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parse price %q: %v", domain.ErrUpstreamUnavailable, entry.Price, err)
	}
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", domain.ErrUpstreamUnavailable, price)
	}
	return price, nil
}
