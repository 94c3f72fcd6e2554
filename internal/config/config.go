// Package config loads service configuration from a YAML file with
// environment variable overrides. Secrets only come from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"solana-swap-service/internal/domain"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogDir     string `yaml:"log_dir"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"-"` // REDIS_PASSWORD only
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Solana struct {
		RPCEndpoint string `yaml:"rpc_endpoint"`
		Commitment  string `yaml:"commitment"`
	} `yaml:"solana"`

	Jupiter struct {
		BaseURL  string `yaml:"base_url"`
		PriceURL string `yaml:"price_url"`
	} `yaml:"jupiter"`

	PriceTTL time.Duration `yaml:"price_ttl"`

	Feed struct {
		Enabled  bool          `yaml:"enabled"`
		Pairs    []string      `yaml:"pairs"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"feed"`

	// SignerKey is the base58 secret key. Environment only; never logged.
	SignerKey string `yaml:"-"`

	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`

	// Tokens extends or overrides the built-in token table.
	Tokens []TokenConfig `yaml:"tokens"`
}

// TokenConfig is one tradable token entry in the config file.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Mint     string `yaml:"mint"`
	Decimals int    `yaml:"decimals"`
}

// Load reads the YAML file at path (optional, "" skips it) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		PriceTTL:   10 * time.Second,
	}
	cfg.Feed.Enabled = true
	cfg.Feed.Pairs = []string{"SOL-USDT"}
	cfg.Feed.Interval = 1 * time.Second

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogDir, "LOG_DIR")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Solana.RPCEndpoint, "SOLANA_RPC_ENDPOINT")
	setString(&c.Solana.Commitment, "SOLANA_COMMITMENT")
	setString(&c.Jupiter.BaseURL, "JUPITER_BASE_URL")
	setString(&c.Jupiter.PriceURL, "JUPITER_PRICE_URL")
	setString(&c.SignerKey, "SIGNER_PRIVATE_KEY")
	setString(&c.PostgresDSN, "POSTGRES_DSN")
	setString(&c.ClickhouseDSN, "CLICKHOUSE_DSN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the fields every deployment needs. A missing signer key
// is not an error here: the service degrades to price-only mode.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.Solana.RPCEndpoint == "" && c.SignerKey != "" {
		return fmt.Errorf("solana.rpc_endpoint is required when a signer key is configured")
	}
	if c.PriceTTL <= 0 {
		return fmt.Errorf("price_ttl must be positive")
	}
	if c.Feed.Enabled {
		if c.Feed.Interval <= 0 {
			return fmt.Errorf("feed.interval must be positive")
		}
		if _, err := c.FeedPairs(); err != nil {
			return err
		}
	}
	for _, t := range c.Tokens {
		if t.Symbol == "" || t.Mint == "" {
			return fmt.Errorf("token entries need both symbol and mint")
		}
	}
	return nil
}

// FeedPairs parses the configured feed pairs.
func (c *Config) FeedPairs() ([]domain.TradingPair, error) {
	pairs := make([]domain.TradingPair, 0, len(c.Feed.Pairs))
	for _, raw := range c.Feed.Pairs {
		pair, err := domain.ParsePair(raw)
		if err != nil {
			return nil, fmt.Errorf("feed pair %q: %w", raw, err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// TokenRegistry builds the registry from the built-in table plus the
// configured extensions. Config entries override built-ins by symbol.
func (c *Config) TokenRegistry() (*domain.Registry, error) {
	entries := domain.DefaultTokens()
	for _, t := range c.Tokens {
		entries = append(entries, domain.TokenMetadata{
			Symbol:   t.Symbol,
			Mint:     t.Mint,
			Decimals: t.Decimals,
		})
	}
	return domain.NewRegistry(entries)
}
