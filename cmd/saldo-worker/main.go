package main

import (
	"context"
	"errors"
	"os"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/cli"
	"saldo/internal/log"
	gsheet "saldo/internal/sheets/google"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	logger.Info("Starting saldo-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateJournal(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	sheetsClient, err := gsheet.NewClient(initCtx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleJournalSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	cancelInit()
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	journal := worker.NewJournalWorker(sheetsClient, logger)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(journal.Seen())
	caches.StartCleanup(10 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		caches.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
	})

	logger.Info("Consuming record events", "queue", cfg.AMQPQueue, "sheet", cfg.GoogleJournalSheet)
	if err := amqpClient.Consume(ctx, journal.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
