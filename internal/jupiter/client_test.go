package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-swap-service/internal/domain"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	solMint  = "So11111111111111111111111111111111111111112"
)

func TestClientQuote(t *testing.T) {
	quoteBody := fmt.Sprintf(`{"inputMint":"%s","outputMint":"%s","inAmount":"10000000","outAmount":"62500000","slippageBps":50}`, usdcMint, solMint)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %s, want /quote", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("inputMint") != usdcMint || q.Get("outputMint") != solMint {
			t.Errorf("unexpected mints: %s -> %s", q.Get("inputMint"), q.Get("outputMint"))
		}
		if q.Get("amount") != "10000000" {
			t.Errorf("amount = %s, want 10000000", q.Get("amount"))
		}
		if q.Get("slippageBps") != "50" {
			t.Errorf("slippageBps = %s, want 50", q.Get("slippageBps"))
		}
		fmt.Fprint(w, quoteBody)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote, err := client.Quote(context.Background(), usdcMint, solMint, 10000000, 50)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if quote.InAmount != 10000000 {
		t.Errorf("InAmount = %d, want 10000000", quote.InAmount)
	}
	if quote.OutAmount != 62500000 {
		t.Errorf("OutAmount = %d, want 62500000", quote.OutAmount)
	}
	if string(quote.Raw) != quoteBody {
		t.Error("Raw does not preserve the quote body verbatim")
	}
}

func TestClientQuoteErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "not json") },
		},
		{
			name:    "zero output",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"inAmount":"10000000","outAmount":"0"}`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			_, err := client.Quote(context.Background(), usdcMint, solMint, 10000000, 50)
			if !errors.Is(err, domain.ErrQuoteUnavailable) {
				t.Errorf("Quote error = %v, want ErrQuoteUnavailable", err)
			}
		})
	}
}

func TestClientSwapTransaction(t *testing.T) {
	rawTx := []byte{0x01, 0x02, 0x03, 0x04}
	user := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	quote := &domain.SwapQuote{Raw: json.RawMessage(`{"inAmount":"10000000"}`)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/swap" {
			t.Errorf("path = %s, want /swap", r.URL.Path)
		}
		var req swapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !bytes.Equal(req.QuoteResponse, quote.Raw) {
			t.Error("quoteResponse does not echo the original quote")
		}
		if req.UserPublicKey != user {
			t.Errorf("userPublicKey = %s, want %s", req.UserPublicKey, user)
		}
		if !req.WrapAndUnwrapSol {
			t.Error("wrapAndUnwrapSol not set")
		}
		if req.PrioritizationFeeLamports != "auto" {
			t.Errorf("prioritizationFeeLamports = %s, want auto", req.PrioritizationFeeLamports)
		}
		fmt.Fprintf(w, `{"swapTransaction":"%s"}`, base64.StdEncoding.EncodeToString(rawTx))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	got, err := client.SwapTransaction(context.Background(), quote, user)
	if err != nil {
		t.Fatalf("SwapTransaction failed: %v", err)
	}
	if !bytes.Equal(got, rawTx) {
		t.Errorf("transaction bytes = %x, want %x", got, rawTx)
	}
}

func TestClientSwapTransactionErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name:    "empty transaction",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"swapTransaction":""}`) },
		},
		{
			name:    "invalid base64",
			handler: func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"swapTransaction":"%%%"}`) },
		},
	}

	quote := &domain.SwapQuote{Raw: json.RawMessage(`{}`)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			_, err := client.SwapTransaction(context.Background(), quote, "user")
			if !errors.Is(err, domain.ErrMalformedTransaction) {
				t.Errorf("SwapTransaction error = %v, want ErrMalformedTransaction", err)
			}
		})
	}
}
