package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

// TokenMetadata maps a symbol to its on-chain mint and decimals.
// Static, read-only after load.
type TokenMetadata struct {
	Symbol   string
	Mint     string
	Decimals int
}

// MaxDecimals is the largest decimals value a token entry may declare.
// SPL mints use uint8 decimals; anything above 18 would overflow the
// base-unit range long before that.
const MaxDecimals = 18

// DefaultTokens are the built-in symbol entries. A deployment extends them
// via the token table in the config file.
func DefaultTokens() []TokenMetadata {
	return []TokenMetadata{
		{Symbol: "SOL", Mint: "So11111111111111111111111111111111111111112", Decimals: 9},
		{Symbol: "USDC", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
		{Symbol: "USDT", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
		{Symbol: "JUP", Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Decimals: 6},
		{Symbol: "BONK", Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Decimals: 5},
	}
}

// Registry resolves symbols to token metadata. Built once at startup and
// shared read-only across requests; no locking needed.
type Registry struct {
	tokens map[string]TokenMetadata
}

// NewRegistry builds a registry from the given entries. Later entries
// override earlier ones, so callers list defaults first and overrides last.
// Every mint must be a 32-byte base58 value.
func NewRegistry(entries []TokenMetadata) (*Registry, error) {
	tokens := make(map[string]TokenMetadata, len(entries))
	for _, t := range entries {
		sym := strings.ToUpper(strings.TrimSpace(t.Symbol))
		if sym == "" {
			return nil, fmt.Errorf("token entry with empty symbol (mint %s)", t.Mint)
		}
		if t.Decimals < 0 || t.Decimals > MaxDecimals {
			return nil, fmt.Errorf("token %s: decimals %d out of range [0, %d]", sym, t.Decimals, MaxDecimals)
		}
		raw, err := base58.Decode(t.Mint)
		if err != nil {
			return nil, fmt.Errorf("token %s: decode mint: %w", sym, err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("token %s: mint is %d bytes, want 32", sym, len(raw))
		}
		t.Symbol = sym
		tokens[sym] = t
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token registry is empty")
	}
	return &Registry{tokens: tokens}, nil
}

// Resolve returns the metadata for a symbol, or ErrUnsupportedSymbol.
func (r *Registry) Resolve(symbol string) (TokenMetadata, error) {
	t, ok := r.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return TokenMetadata{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}
	return t, nil
}

// Symbols returns all known symbols, sorted.
func (r *Registry) Symbols() []string {
	out := make([]string, 0, len(r.tokens))
	for s := range r.tokens {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
