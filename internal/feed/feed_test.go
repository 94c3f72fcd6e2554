package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"solana-swap-service/internal/domain"
)

type stubSource struct {
	calls int32
	price decimal.Decimal
	at    time.Time
}

func (s *stubSource) Get(_ context.Context, pair domain.TradingPair) (*domain.PricePoint, error) {
	atomic.AddInt32(&s.calls, 1)
	return &domain.PricePoint{
		Pair:      pair,
		Price:     s.price,
		Source:    domain.SourceCache,
		FetchedAt: s.at,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func TestHubWelcomeAndBroadcast(t *testing.T) {
	pair := domain.TradingPair{Base: "SOL", Quote: "USDT"}
	source := &stubSource{
		price: decimal.RequireFromString("162.5"),
		at:    time.UnixMilli(1700000000000),
	}

	hub := NewHub(source, []domain.TradingPair{pair}, testLogger(), Config{
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)

	var welcome welcomeMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != "welcome" {
		t.Errorf("first message type = %q, want welcome", welcome.Type)
	}

	var update priceUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if update.Type != "price-update" {
		t.Errorf("update type = %q, want price-update", update.Type)
	}
	if update.Symbol != pair.String() {
		t.Errorf("update symbol = %q, want %q", update.Symbol, pair.String())
	}
	if update.Price != "162.5" {
		t.Errorf("update price = %q, want 162.5", update.Price)
	}
	if update.Timestamp != source.at.UnixMilli() {
		t.Errorf("update timestamp = %d, want %d", update.Timestamp, source.at.UnixMilli())
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	pair := domain.TradingPair{Base: "SOL", Quote: "USDT"}
	source := &stubSource{price: decimal.RequireFromString("162.5"), at: time.Now()}

	hub := NewHub(source, []domain.TradingPair{pair}, testLogger(), Config{
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	var welcome welcomeMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.clientsMu.Lock()
		n := len(hub.clients)
		hub.clientsMu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("closed client was not removed from the hub")
}

func TestHubStopsOnContextCancel(t *testing.T) {
	pair := domain.TradingPair{Base: "SOL", Quote: "USDT"}
	source := &stubSource{price: decimal.RequireFromString("162.5"), at: time.Now()}

	hub := NewHub(source, []domain.TradingPair{pair}, testLogger(), Config{
		Interval: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialHub(t, srv)
	var welcome welcomeMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}

	// The hub closed the connection; reads drain any buffered updates
	// and then fail.
	for {
		var msg priceUpdate
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
	}
}
