package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/eaninfo/backend/config"
	httpDelivery "github.com/eaninfo/backend/internal/delivery/http"
	"github.com/eaninfo/backend/internal/domain"
	"github.com/eaninfo/backend/internal/extract"
	"github.com/eaninfo/backend/internal/infrastructure/cache"
	"github.com/eaninfo/backend/internal/infrastructure/skaupat"
	"github.com/eaninfo/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	initSlog(cfg.Log)

	slog.Info("starting EAN info backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"cache", cfg.Cache.Type,
		"dom_fallback", cfg.Extraction.DOMFallback)

	recordCache, closeCache := newCache(cfg.Cache)
	defer closeCache()

	fetcher := skaupat.NewClient(skaupat.Options{
		BaseURL:          cfg.Fetcher.BaseURL,
		ProductPath:      cfg.Fetcher.ProductPath,
		UserAgent:        cfg.Fetcher.UserAgent,
		Timeout:          cfg.Fetcher.Timeout,
		RetryCount:       cfg.Fetcher.RetryCount,
		RetryWait:        cfg.Fetcher.RetryWait,
		RequestsPerSec:   cfg.RateLimit.Fetcher,
		Burst:            cfg.RateLimit.FetcherBurst,
		CloudflareBypass: cfg.Fetcher.CloudflareBypass,
	})
	slog.Info("product pages", "url", cfg.Fetcher.BaseURL+cfg.Fetcher.ProductPath)

	extractor := extract.NewExtractor(extract.Options{DOMFallback: cfg.Extraction.DOMFallback})

	products := usecase.NewProductService(recordCache, fetcher, extractor, usecase.ProductServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	sessions := usecase.NewSessionRegistry(products, usecase.SessionRegistryConfig{
		Capacity:      cfg.Session.Capacity,
		TTL:           cfg.Session.TTL,
		NutrientGroup: cfg.Extraction.NutrientGroup,
	})

	handler := httpDelivery.NewHandler(products, sessions, cfg.Extraction.NutrientGroup)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

// initSlog installs tint for text output and the JSON handler otherwise
func initSlog(cfg config.LogConfig) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	slog.SetDefault(slog.New(handler))
}

// newCache builds the configured record cache and its cleanup function
func newCache(cfg config.CacheConfig) (domain.CacheRepository, func()) {
	switch cfg.Type {
	case "lru":
		slog.Info("record cache", "type", "lru", "size", cfg.Size, "ttl", cfg.TTL)
		return cache.NewLRUCache(cfg.Size, cfg.TTL), func() {}
	default:
		slog.Info("record cache", "type", "memory", "ttl", cfg.TTL)
		memoryCache := cache.NewMemoryCache()
		return memoryCache, memoryCache.Close
	}
}
