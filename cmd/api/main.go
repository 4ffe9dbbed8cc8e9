package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotspot-fulfillment/config"
	httpHandler "hotspot-fulfillment/internal/adapter/http/handler"
	"hotspot-fulfillment/internal/adapter/sms"
	pgStorage "hotspot-fulfillment/internal/adapter/storage/postgres"
	redisStorage "hotspot-fulfillment/internal/adapter/storage/redis"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/internal/metrics"
	"hotspot-fulfillment/internal/service"
	"hotspot-fulfillment/internal/sweep"
	"hotspot-fulfillment/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("sms_gateway", cfg.SMS.Gateway).
		Msg("Starting Hotspot Fulfillment Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	voucherRepo := pgStorage.NewVoucherRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	deliveryRepo := pgStorage.NewDeliveryRepo(pool)
	pkgRepo := pgStorage.NewPackageRepo(pool)

	// Initialize SMS gateway
	notifier, err := sms.NewNotifier(cfg.SMS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SMS gateway")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	authSvc := service.NewOperatorAuthService(
		cfg.Auth.OperatorUsername,
		cfg.Auth.OperatorPasswordHash,
		hashSvc,
		tokenSvc,
		log,
	)
	fulfillSvc := service.NewFulfillmentService(txRepo, voucherRepo, deliveryRepo, pkgRepo, notifier, m, log)
	voucherSvc := service.NewVoucherService(voucherRepo, log)

	// Initialize rate limit store
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Start the unfulfilled-transaction sweeper
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.Sweep.Enabled {
		sweeper := sweep.NewSweeper(fulfillSvc, txRepo, cfg.Sweep, m, log)
		go sweeper.RunForever(sweepCtx)
		log.Info().Dur("interval", cfg.Sweep.Interval).Msg("Sweeper started")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		FulfillSvc:     fulfillSvc,
		VoucherSvc:     voucherSvc,
		AuthSvc:        authSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Registry:       registry,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
