// Package main runs the swap execution service:
// - Price path: cache-aside lookups against the aggregator price API
// - Trade path: validate → quote → build → sign → broadcast
// - Async observers: Postgres execution journal, ClickHouse tick archive
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-swap-service/internal/api"
	"solana-swap-service/internal/config"
	"solana-swap-service/internal/feed"
	"solana-swap-service/internal/jupiter"
	"solana-swap-service/internal/observability"
	"solana-swap-service/internal/pricing"
	"solana-swap-service/internal/signer"
	"solana-swap-service/internal/solana"
	"solana-swap-service/internal/storage"
	chstore "solana-swap-service/internal/storage/clickhouse"
	"solana-swap-service/internal/storage/migrations"
	pgstore "solana-swap-service/internal/storage/postgres"
	"solana-swap-service/internal/swap"
)

func main() {
	// Load .env if present; system env vars win.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := cfg.TokenRegistry()
	if err != nil {
		logger.Error("invalid token table", "error", err)
		os.Exit(1)
	}
	logger.Info("token registry loaded", "symbols", tokens.Symbols())

	// Price cache store. Redis when configured, otherwise in-process.
	var cacheStore pricing.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := pricing.NewRedisStore(ctx, pricing.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		cacheStore = redisStore
		logger.Info("price cache store ready", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		cacheStore = pricing.NewMemoryStore()
		logger.Warn("no redis configured, price cache is in-process only")
	}

	// Optional tick archive.
	var tickStore storage.PriceTickStore
	if cfg.ClickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Error("connect to clickhouse", "error", err)
			os.Exit(1)
		}
		defer chConn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			logger.Error("clickhouse migrations", "error", err)
			os.Exit(1)
		}
		tickStore = chstore.NewPriceTickStore(chConn)
		logger.Info("price tick archive ready")
	}

	oracleOpts := []pricing.OracleOption{}
	if cfg.Jupiter.PriceURL != "" {
		oracleOpts = append(oracleOpts, pricing.WithOracleURL(cfg.Jupiter.PriceURL))
	}
	oracle := pricing.NewJupiterOracle(tokens, oracleOpts...)

	priceOpts := []pricing.ServiceOption{pricing.WithTTL(cfg.PriceTTL)}
	if tickStore != nil {
		priceOpts = append(priceOpts, pricing.WithTickStore(tickStore))
	}
	prices := pricing.NewService(cacheStore, oracle, logger, priceOpts...)

	// Trade path. Without a signer key the service runs price-only.
	var engine api.SwapEngine
	if cfg.SignerKey == "" {
		logger.Warn("no signer key configured, trading disabled")
	} else {
		identity, err := signer.NewIdentity(cfg.SignerKey)
		if err != nil {
			logger.Error("load signing identity", "error", err)
			os.Exit(1)
		}
		logger.Info("signing identity loaded", "public_key", identity.PublicKey())

		rpcOpts := []solana.ClientOption{}
		if cfg.Solana.Commitment != "" {
			rpcOpts = append(rpcOpts, solana.WithCommitment(solana.Commitment(cfg.Solana.Commitment)))
		}
		rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint, rpcOpts...)
		if err := rpc.GetHealth(ctx); err != nil {
			logger.Warn("rpc node health check failed", "error", err)
		}

		jupOpts := []jupiter.Option{}
		if cfg.Jupiter.BaseURL != "" {
			jupOpts = append(jupOpts, jupiter.WithBaseURL(cfg.Jupiter.BaseURL))
		}
		aggregator := jupiter.NewClient(jupOpts...)

		// Optional execution journal.
		var journal storage.SwapRecordStore
		if cfg.PostgresDSN != "" {
			pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
			if err != nil {
				logger.Error("connect to postgres", "error", err)
				os.Exit(1)
			}
			defer pool.Close()
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Error("postgres migrations", "error", err)
				os.Exit(1)
			}
			journal = pgstore.NewSwapRecordStore(pool)
			logger.Info("execution journal ready")
		} else {
			logger.Warn("no postgres configured, swap outcomes are not journaled")
		}

		engine = swap.New(swap.Options{
			Tokens:      tokens,
			Quoter:      aggregator,
			Builder:     aggregator,
			Signer:      identity,
			Broadcaster: rpc,
			Journal:     journal,
			Logger:      logger,
		})
	}

	// Websocket price feed.
	var feedHandler http.Handler
	if cfg.Feed.Enabled {
		pairs, err := cfg.FeedPairs()
		if err != nil {
			logger.Error("invalid feed pairs", "error", err)
			os.Exit(1)
		}
		hub := feed.NewHub(prices, pairs, logger, feed.Config{
			Interval: cfg.Feed.Interval,
		})
		go hub.Run(ctx)
		feedHandler = hub
		logger.Info("price feed enabled", "pairs", cfg.Feed.Pairs, "interval", cfg.Feed.Interval)
	}

	server := api.NewServer(api.Options{
		Prices: prices,
		Engine: engine,
		Feed:   feedHandler,
		Logger: logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}
