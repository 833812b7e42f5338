package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masterspa/internal/api"
	"masterspa/internal/cart"
	"masterspa/internal/catalog"
	"masterspa/internal/config"
	"masterspa/internal/connectors/woocommerce"
	"masterspa/internal/database"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/orders"
	"masterspa/internal/scheduler"
	"masterspa/internal/services/feed"
	"masterspa/internal/services/webhook"
	"masterspa/internal/settings"

	"github.com/redis/go-redis/v9"
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

	// Initialize database
	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Stores
	settingsStore := settings.NewStore(db.DB)
	catalogStore := catalog.NewStore(db.DB)
	logRepo := importlog.NewRepository(db.DB)
	orderStore := orders.NewStore(db.DB)

	// Redis backs cart sessions and the import lease when configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	var carts cart.SessionStore = cart.NewMemoryStore()
	if redisClient != nil {
		carts = cart.NewRedisStore(redisClient, cfg.CartSessionTTL)
	}

	importOpts, err := woocommerce.LockOptions(cfg.ImportLockEnabled, redisClient, cfg.ImportLockTTL, logger)
	if err != nil {
		logger.Fatal("%v", err)
	}

	importer := woocommerce.NewImporter(settingsStore, feed.NewClient(logger), catalogStore, logRepo, logger, importOpts...)
	notifier := webhook.NewNotifier(orderStore, catalogStore, settingsStore, logRepo, logger)

	// Order events go through kafka when brokers are configured, otherwise
	// the webhook runs in the request
	var publisher orders.Publisher = orders.NewInlinePublisher(notifier)
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		kafkaPublisher := orders.NewKafkaPublisher(brokers, cfg.OrderEventTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Scheduler
	sched := scheduler.New(importer, logger)
	current, err := settingsStore.Load(context.Background())
	if err != nil {
		logger.Fatal("Failed to load import settings: %v", err)
	}
	if err := sched.Apply(current); err != nil {
		logger.Fatal("Failed to schedule import: %v", err)
	}
	if err := sched.ScheduleRetention(cfg.LogRetentionDays, logRepo); err != nil {
		logger.Fatal("%v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Initialize API server
	server := api.New(cfg, logger, api.Services{
		DB:        db,
		Settings:  settingsStore,
		Importer:  importer,
		Scheduler: sched,
		Logs:      logRepo,
		Orders:    orders.NewService(orderStore, publisher, logger),
		Carts:     carts,
	})

	// Start server
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
