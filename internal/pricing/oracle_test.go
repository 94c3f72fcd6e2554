package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-service/internal/domain"
)

func TestJupiterOraclePrice(t *testing.T) {
	tokens, err := domain.NewRegistry(domain.DefaultTokens())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	sol, _ := tokens.Resolve("SOL")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != sol.Mint {
			t.Errorf("ids = %q, want %q", got, sol.Mint)
		}
		if got := r.URL.Query().Get("vsToken"); got != "" {
			t.Errorf("unexpected vsToken %q for USD quote", got)
		}
		fmt.Fprintf(w, `{"data":{"%s":{"id":"%s","price":"162.5"}}}`, sol.Mint, sol.Mint)
	}))
	defer srv.Close()

	oracle := NewJupiterOracle(tokens, WithOracleURL(srv.URL))
	price, err := oracle.Price(context.Background(), domain.TradingPair{Base: "SOL", Quote: "USD"})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.String() != "162.5" {
		t.Errorf("price = %s, want 162.5", price)
	}
}

func TestJupiterOraclePairQuote(t *testing.T) {
	tokens, err := domain.NewRegistry(domain.DefaultTokens())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	sol, _ := tokens.Resolve("SOL")
	usdt, _ := tokens.Resolve("USDT")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("vsToken"); got != usdt.Mint {
			t.Errorf("vsToken = %q, want %q", got, usdt.Mint)
		}
		fmt.Fprintf(w, `{"data":{"%s":{"id":"%s","price":"162.31"}}}`, sol.Mint, sol.Mint)
	}))
	defer srv.Close()

	oracle := NewJupiterOracle(tokens, WithOracleURL(srv.URL))
	price, err := oracle.Price(context.Background(), domain.TradingPair{Base: "SOL", Quote: "USDT"})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price.String() != "162.31" {
		t.Errorf("price = %s, want 162.31", price)
	}
}

func TestJupiterOracleErrors(t *testing.T) {
	tokens, err := domain.NewRegistry(domain.DefaultTokens())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		pair    domain.TradingPair
		want    error
	}{
		{
			name:    "unknown symbol is rejected before any request",
			handler: func(w http.ResponseWriter, r *http.Request) { t.Error("unexpected upstream call") },
			pair:    domain.TradingPair{Base: "NOPE", Quote: "USD"},
			want:    domain.ErrUnsupportedSymbol,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			pair:    domain.TradingPair{Base: "SOL", Quote: "USD"},
			want:    domain.ErrUpstreamUnavailable,
		},
		{
			name:    "missing price entry",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"data":{}}`) },
			pair:    domain.TradingPair{Base: "SOL", Quote: "USD"},
			want:    domain.ErrUpstreamUnavailable,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "not json") },
			pair:    domain.TradingPair{Base: "SOL", Quote: "USD"},
			want:    domain.ErrUpstreamUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			oracle := NewJupiterOracle(tokens, WithOracleURL(srv.URL))
			_, err := oracle.Price(context.Background(), tt.pair)
			if !errors.Is(err, tt.want) {
				t.Errorf("Price error = %v, want %v", err, tt.want)
			}
		})
	}
}
