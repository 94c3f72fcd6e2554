package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solana-swap-service/internal/domain"
)

// Default aggregator API configuration. Quote lookups are cheap and fast;
// building a swap transaction server-side can take noticeably longer.
const (
	DefaultBaseURL      = "https://quote-api.jup.ag/v6"
	DefaultQuoteTimeout = 10 * time.Second
	DefaultSwapTimeout  = 60 * time.Second
)

// Client talks to the Jupiter v6 aggregator REST API.
type Client struct {
	baseURL     string
	quoteClient *http.Client
	swapClient  *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the aggregator base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithQuoteTimeout sets the HTTP timeout for quote requests.
func WithQuoteTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.quoteClient.Timeout = d
	}
}

// WithSwapTimeout sets the HTTP timeout for swap-build requests.
func WithSwapTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.swapClient.Timeout = d
	}
}

// NewClient creates a Jupiter aggregator client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		quoteClient: &http.Client{Timeout: DefaultQuoteTimeout},
		swapClient:  &http.Client{Timeout: DefaultSwapTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// quoteResponse carries the fields the engine needs. The raw body is kept
// because the swap endpoint requires the quote verbatim.
type quoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// Quote asks the aggregator for the best route swapping amount base units
// of inputMint into outputMint within the given slippage tolerance.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.SwapQuote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.quoteClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrQuoteUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrQuoteUnavailable, resp.StatusCode, truncate(body))
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrQuoteUnavailable, err)
	}

	inAmount, err := strconv.ParseUint(parsed.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse inAmount %q: %v", domain.ErrQuoteUnavailable, parsed.InAmount, err)
	}
	outAmount, err := strconv.ParseUint(parsed.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse outAmount %q: %v", domain.ErrQuoteUnavailable, parsed.OutAmount, err)
	}
	if outAmount == 0 {
		return nil, fmt.Errorf("%w: zero output amount", domain.ErrQuoteUnavailable)
	}

	return &domain.SwapQuote{
		InputMint:  parsed.InputMint,
		OutputMint: parsed.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		Raw:        json.RawMessage(body),
	}, nil
}

// swapRequest is the body of POST /swap.
type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports string          `json:"prioritizationFeeLamports"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// SwapTransaction asks the aggregator to build an unsigned versioned
// transaction executing quote on behalf of userPublicKey. The returned
// bytes are the serialized transaction with an all-zero signature slot.
func (c *Client) SwapTransaction(ctx context.Context, quote *domain.SwapQuote, userPublicKey string) ([]byte, error) {
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:             quote.Raw,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.swapClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedTransaction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrMalformedTransaction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrMalformedTransaction, resp.StatusCode, truncate(body))
	}

	var parsed swapResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrMalformedTransaction, err)
	}
	if parsed.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: empty swapTransaction", domain.ErrMalformedTransaction)
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("%w: decode swapTransaction: %v", domain.ErrMalformedTransaction, err)
	}
	return raw, nil
}

// truncate keeps error messages readable when the API returns a large body.
func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
