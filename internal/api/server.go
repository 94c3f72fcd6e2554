// Package api exposes the HTTP surface: price lookups, trade execution,
// health, status, and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/observability"
)

// PriceService serves price lookups.
type PriceService interface {
	Get(ctx context.Context, pair domain.TradingPair) (*domain.PricePoint, error)
}

// SwapEngine executes swap orders.
type SwapEngine interface {
	Execute(ctx context.Context, order domain.SwapOrder) (*domain.SwapResult, error)
}

// Server holds the HTTP handlers and their dependencies. Engine may be nil
// when no signing identity is configured; the price path still serves.
type Server struct {
	prices PriceService
	engine SwapEngine
	feed   http.Handler
	logger *slog.Logger

	started time.Time

	mu          sync.Mutex
	swapsOK     int
	swapsFailed int
	lastSwapAt  time.Time
}

// Options for creating Server.
type Options struct {
	Prices PriceService
	Engine SwapEngine   // nil disables the trade endpoint
	Feed   http.Handler // nil disables the websocket price feed
	Logger *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(opts Options) *Server {
	return &Server{
		prices:  opts.Prices,
		engine:  opts.Engine,
		feed:    opts.Feed,
		logger:  opts.Logger,
		started: time.Now(),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/price/{pair}", s.handlePrice)
	mux.HandleFunc("POST /api/v1/trade/execute", s.handleTrade)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())
	if s.feed != nil {
		mux.Handle("GET /ws/prices", s.feed)
	}
	return mux
}

// errorResponse is the JSON body for all non-2xx responses.
type errorResponse struct {
	Detail string `json:"detail"`
	Reason string `json:"reason"`
}

// priceResponse is the JSON body for GET /api/v1/price/{pair}.
type priceResponse struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Source    string `json:"source"`
	FetchedAt string `json:"fetched_at"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	pair, err := domain.ParsePair(r.PathValue("pair"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	point, err := s.prices.Get(r.Context(), pair)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, priceResponse{
		Symbol:    point.Pair.String(),
		Price:     point.Price.String(),
		Source:    string(point.Source),
		FetchedAt: point.FetchedAt.UTC().Format(time.RFC3339),
	})
}

// tradeRequest is the JSON body for POST /api/v1/trade/execute. Amount is
// a decimal string to avoid float precision loss in transit.
type tradeRequest struct {
	InputSymbol  string `json:"input_symbol"`
	OutputSymbol string `json:"output_symbol"`
	Amount       string `json:"amount"`
	SlippageBps  int    `json:"slippage_bps,omitempty"`
}

// tradeResponse is the JSON body for a completed trade request.
type tradeResponse struct {
	RequestID        string `json:"request_id"`
	Status           string `json:"status"`
	InputAmount      string `json:"input_amount"`
	OutputPrediction string `json:"output_amount_prediction,omitempty"`
	TransactionID    string `json:"transaction_id,omitempty"`
	FailureReason    string `json:"failure_reason,omitempty"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.writeError(w, domain.ErrSignerNotConfigured)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Detail: "malformed request body",
			Reason: "InvalidRequest",
		})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, domain.ErrInvalidAmount)
		return
	}

	result, err := s.engine.Execute(r.Context(), domain.SwapOrder{
		InputSymbol:  req.InputSymbol,
		OutputSymbol: req.OutputSymbol,
		Amount:       amount,
		SlippageBps:  req.SlippageBps,
	})

	s.mu.Lock()
	if err != nil {
		s.swapsFailed++
	} else {
		s.swapsOK++
	}
	s.lastSwapAt = time.Now()
	s.mu.Unlock()

	if err != nil {
		resp := tradeResponse{
			Status:        domain.SwapStatusFailed,
			InputAmount:   amount.String(),
			FailureReason: domain.FailureReason(err),
		}
		if result != nil {
			resp.RequestID = result.RequestID
		}
		s.writeJSON(w, statusForError(err), resp)
		return
	}

	s.writeJSON(w, http.StatusOK, tradeResponse{
		RequestID:        result.RequestID,
		Status:           result.Status,
		InputAmount:      result.InputAmount.String(),
		OutputPrediction: result.PredictedOutput.String(),
		TransactionID:    result.TransactionID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	TradingEnabled bool      `json:"trading_enabled"`
	SwapsSucceeded int       `json:"swaps_succeeded"`
	SwapsFailed    int       `json:"swaps_failed"`
	LastSwapAt     time.Time `json:"last_swap_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).String(),
		TradingEnabled: s.engine != nil,
		SwapsSucceeded: s.swapsOK,
		SwapsFailed:    s.swapsFailed,
		LastSwapAt:     s.lastSwapAt,
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, resp)
}

// statusForError maps the failure taxonomy to HTTP status codes. Client
// input errors are 4xx, dependency failures 502, local faults 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedSymbol),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSignerNotConfigured),
		errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrQuoteUnavailable),
		errors.Is(err, domain.ErrBroadcastFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "error", err)
	}
	s.writeJSON(w, code, errorResponse{
		Detail: err.Error(),
		Reason: domain.FailureReason(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
