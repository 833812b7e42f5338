package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"masterspa/internal/catalog"
	"masterspa/internal/config"
	"masterspa/internal/database"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/orders"
	"masterspa/internal/services/webhook"
	"masterspa/internal/settings"
	"masterspa/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	if len(cfg.KafkaBrokerList()) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the worker")
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	notifier := webhook.NewNotifier(
		orders.NewStore(db.DB),
		catalog.NewStore(db.DB),
		settings.NewStore(db.DB),
		importlog.NewRepository(db.DB),
		logger,
	)

	// Initialize worker
	w := worker.New(cfg, logger, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start worker
	logger.Info("Starting worker...")
	w.Start(ctx)

	logger.Info("Shutting down worker...")
	w.Stop()
}
