package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockdash/stockdash-backend/internal/api"
	"github.com/stockdash/stockdash-backend/internal/auth"
	"github.com/stockdash/stockdash-backend/internal/catalog"
	"github.com/stockdash/stockdash-backend/internal/config"
	"github.com/stockdash/stockdash-backend/internal/db"
	"github.com/stockdash/stockdash-backend/internal/external"
	"github.com/stockdash/stockdash-backend/internal/notifications"
	"github.com/stockdash/stockdash-backend/internal/predictions"
	"github.com/stockdash/stockdash-backend/internal/quotecache"
	"github.com/stockdash/stockdash-backend/internal/quotes"
	"github.com/stockdash/stockdash-backend/internal/repository"
	"github.com/stockdash/stockdash-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║       StockDash Quote Backend        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CATALOG] %v\n", err)
		os.Exit(1)
	}

	// Database
	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN(), db.PoolOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	if now, err := db.Now(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Printf("[DB] Connected, server time %s\n", now.UTC().Format(time.RFC3339))
	}

	if err := db.Migrate(pool); err != nil {
		fmt.Fprintf(os.Stderr, "[DB] Migration failed: %v\n", err)
		os.Exit(1)
	}

	// Quote cache
	store, closeStore, err := quotecache.OpenStore(cfg.CacheBackend, cfg.CacheSQLitePath, repository.NewCacheRepo(pool))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[CACHE] Open failed: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()
	cache := quotecache.New(store, cfg.CacheTTL)

	finnhub := external.NewFinnhubClient(cfg.FinnhubAPIKey, external.FinnhubOptions{
		BaseURL:       cfg.FinnhubBaseURL,
		RetryAttempts: cfg.QuoteRetryAttempts,
	})
	if !finnhub.Configured() {
		fmt.Println("[FINNHUB] No API key, every quote will be rendered from mock data")
	}
	resolver := quotes.NewResolver(finnhub, cache, quotes.Options{SeriesDays: cfg.QuoteSeriesDays})

	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. API server
	srv := api.NewServer(api.Deps{
		DB:          pool,
		Quotes:      resolver,
		Cache:       cache,
		Catalog:     cat,
		Predictions: predictions.NewBook(cat.Predictions),
		Auth:        auth.NewService(repository.NewUserRepo(pool), cfg.BcryptCost),
		SeriesDays:  cfg.QuoteSeriesDays,
	}, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Cache warmer
	var warmer *scheduler.Warmer
	if cfg.WarmEnabled {
		warmer = scheduler.NewWarmer(resolver, scheduler.WarmerConfig{
			Schedule: cfg.WarmCron,
			Symbols:  cat.PopularSymbols,
			Notifier: notify,
		})
		if err := warmer.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "[WARMER] Start failed: %v\n", err)
			os.Exit(1)
		}
		go func() {
			warmCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			warmer.RunNow(warmCtx)
		}()
	} else {
		fmt.Println("[WARMER] Skipped - WARM_ENABLED is off")
	}

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	if warmer != nil {
		warmer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
