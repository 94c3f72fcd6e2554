// Package feed pushes live price updates to websocket subscribers.
// Every interval the hub reads the current price for each configured
// pair and broadcasts it to all connected clients.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/observability"
)

// PriceSource supplies the prices pushed to subscribers.
type PriceSource interface {
	Get(ctx context.Context, pair domain.TradingPair) (*domain.PricePoint, error)
}

// Config holds the hub timing parameters.
type Config struct {
	Interval     time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		Interval:     1 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Hub fans price updates out to websocket clients. It implements
// http.Handler for the upgrade endpoint; Run drives the broadcast loop.
type Hub struct {
	source PriceSource
	pairs  []domain.TradingPair
	cfg    Config
	logger *slog.Logger

	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}
}

var _ http.Handler = (*Hub)(nil)

// NewHub creates a hub broadcasting the given pairs from source.
func NewHub(source PriceSource, pairs []domain.TradingPair, logger *slog.Logger, cfg Config) *Hub {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Hub{
		source: source,
		pairs:  pairs,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is broadcast-only public data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// welcomeMessage is sent once to each client on connect.
type welcomeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// priceUpdate is the broadcast payload, one per pair per tick.
type priceUpdate struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
}

// ServeHTTP upgrades the connection and registers it for broadcasts.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	if err := conn.WriteJSON(welcomeMessage{
		Type:    "welcome",
		Message: "connected to price feed",
	}); err != nil {
		conn.Close()
		return
	}

	h.register(conn)
	go h.readLoop(conn)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.clientsMu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.clientsMu.Unlock()
	observability.RecordFeedSubscribers(n)
	h.logger.Debug("feed subscriber connected", "subscribers", n)
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, conn)
	n := len(h.clients)
	h.clientsMu.Unlock()
	conn.Close()
	observability.RecordFeedSubscribers(n)
	h.logger.Debug("feed subscriber disconnected", "subscribers", n)
}

// readLoop drains inbound frames so close and ping control frames are
// processed. The feed carries no client-to-server messages.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Run broadcasts price updates until ctx is cancelled, then closes all
// client connections.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.broadcast(ctx)
		}
	}
}

func (h *Hub) broadcast(ctx context.Context) {
	h.clientsMu.Lock()
	if len(h.clients) == 0 {
		h.clientsMu.Unlock()
		return
	}
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMu.Unlock()

	for _, pair := range h.pairs {
		point, err := h.source.Get(ctx, pair)
		if err != nil {
			h.logger.Warn("feed price lookup failed", "pair", pair.String(), "error", err)
			continue
		}
		msg := priceUpdate{
			Type:      "price-update",
			Symbol:    point.Pair.String(),
			Price:     point.Price.String(),
			Source:    string(point.Source),
			Timestamp: point.FetchedAt.UnixMilli(),
		}
		for _, conn := range conns {
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.unregister(conn)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clientsMu.Unlock()
	for _, conn := range conns {
		h.unregister(conn)
	}
}
