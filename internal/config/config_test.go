package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %s, want :8080", cfg.ListenAddr)
	}
	if cfg.PriceTTL != 10*time.Second {
		t.Errorf("PriceTTL = %v, want 10s", cfg.PriceTTL)
	}
	if !cfg.Feed.Enabled {
		t.Error("feed not enabled by default")
	}
	if cfg.Feed.Interval != time.Second {
		t.Errorf("Feed.Interval = %v, want 1s", cfg.Feed.Interval)
	}
	pairs, err := cfg.FeedPairs()
	if err != nil {
		t.Fatalf("FeedPairs failed: %v", err)
	}
	if len(pairs) != 1 || pairs[0].String() != "SOL-USDT" {
		t.Errorf("default feed pairs = %v, want [SOL-USDT]", pairs)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
price_ttl: 5s
redis:
  addr: "localhost:6379"
solana:
  rpc_endpoint: "https://rpc.example.com"
tokens:
  - symbol: WIF
    mint: EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm
    decimals: 6
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %s, want :9000", cfg.ListenAddr)
	}
	if cfg.PriceTTL != 5*time.Second {
		t.Errorf("PriceTTL = %v, want 5s", cfg.PriceTTL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %s", cfg.Redis.Addr)
	}

	tokens, err := cfg.TokenRegistry()
	if err != nil {
		t.Fatalf("TokenRegistry failed: %v", err)
	}
	wif, err := tokens.Resolve("WIF")
	if err != nil {
		t.Fatalf("configured token not resolvable: %v", err)
	}
	if wif.Decimals != 6 {
		t.Errorf("WIF decimals = %d, want 6", wif.Decimals)
	}
	// Built-ins survive alongside extensions.
	if _, err := tokens.Resolve("SOL"); err != nil {
		t.Errorf("built-in token lost: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
solana:
  rpc_endpoint: "https://from-file.example.com"
`)
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://from-env.example.com")
	t.Setenv("SIGNER_PRIVATE_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Solana.RPCEndpoint != "https://from-env.example.com" {
		t.Errorf("RPCEndpoint = %s, env should win", cfg.Solana.RPCEndpoint)
	}
	if cfg.SignerKey != "secret" {
		t.Error("SignerKey not taken from environment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"zero ttl", func(c *Config) { c.PriceTTL = 0 }, true},
		{"signer without rpc", func(c *Config) { c.SignerKey = "x" }, true},
		{"token missing mint", func(c *Config) {
			c.Tokens = []TokenConfig{{Symbol: "WIF"}}
		}, true},
		{"feed zero interval", func(c *Config) { c.Feed.Interval = 0 }, true},
		{"feed malformed pair", func(c *Config) { c.Feed.Pairs = []string{"-USDT"} }, true},
		{"feed disabled skips feed checks", func(c *Config) {
			c.Feed.Enabled = false
			c.Feed.Interval = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
