// Package main is the entry point for the autobill API server.
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

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autobill/internal/app"
	"autobill/internal/config"
	"autobill/internal/domain/auth"
	v1 "autobill/internal/infrastructure/http/v1"
	"autobill/internal/infrastructure/http/v1/middleware"
	"autobill/internal/infrastructure/metrics"
	"autobill/internal/infrastructure/render/pdf"
	"autobill/internal/infrastructure/storage/postgres"
	"autobill/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting autobill server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = int32(cfg.DB.MaxConns)
	poolCfg.MinConns = int32(cfg.DB.MinConns)
	poolCfg.StatementTimeout = cfg.DB.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalw("failed to migrate database", "error", err)
		}
	}

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// --- Services ---
	txm := postgres.NewTxManager(pool)
	services := app.NewServices(txm, app.Options{
		Numbering:        cfg.Numbering,
		InvoiceObserver:  m,
		SequenceObserver: m,
	})

	// --- Auth ---
	var tokens middleware.TokenValidator
	if cfg.JWT.Enabled() {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
		jwtConfig.Issuer = cfg.JWT.Issuer
		jwtConfig.AccessTokenTTL = cfg.JWT.TTL
		tokens = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("JWT_SECRET is empty, API authentication is disabled")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Pool:           pool,
		TokenValidator: tokens,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		TaxCategories:  services.TaxCategories,
		Products:       services.Products,
		Customers:      services.Customers,
		Vehicles:       services.Vehicles,
		Invoices:       services.Invoices,
		Renderer: pdf.NewRenderer(pdf.Seller{
			Name: cfg.Seller.Name,
			NTN:  cfg.Seller.NTN,
			GST:  cfg.Seller.GST,
		}),
		Debug: cfg.App.IsDevelopment(),
	})

	var handler http.Handler = router
	if cfg.HTTP.Gzip {
		handler = gzhttp.GzipHandler(router)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", server.Addr, "auth", cfg.JWT.Enabled(), "gzip", cfg.HTTP.Gzip)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	pool.LogStats(ctx)
	log.Info("server stopped")
}
