package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/auth"
	"saldo/internal/cache"
	"saldo/internal/cli"
	"saldo/internal/core"
	apphttp "saldo/internal/http"
	"saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/store"
	"saldo/internal/view"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res := cli.OpenBackend(startCtx, logger, cfg)
	cancelStart()

	// Change events are optional; without AMQP_URL writes are not journaled.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}
	be := services.NewJournalingBackend(res.Backend, publisher, logger)

	authSvc := auth.NewService(be, cfg.AuthSecret, cfg.SessionTTL, logger)
	registry := store.NewRegistry(be, cfg.SessionCacheSize, cfg.SessionCacheTTL, logger,
		store.WithDefaultSalary(core.Money{Cents: cfg.DefaultSalaryCents()}))
	unsubscribe := authSvc.Subscribe(registry.HandleSessionEvent)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(registry.Cleaner())

	formatter, err := view.NewFormatter(cfg.Currency)
	if err != nil {
		logger.Error("Invalid currency", log.FieldError, err, "currency", cfg.Currency)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               authSvc,
		Stores:             registry,
		Backend:            be,
		Formatter:          formatter,
		Logger:             logger,
		Caches:             caches,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      os.Getenv("SECURE_COOKIES") == "true",
		SessionTTL:         cfg.SessionTTL,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	caches.StartCleanup(time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		unsubscribe()
		caches.Stop()
		// Closes the AMQP connection and the backend's database handle.
		if err := be.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})

	logger.Info("Starting saldo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"currency", cfg.Currency,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
