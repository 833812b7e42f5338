// Command import runs a single import and exits non-zero when it fails.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"masterspa/internal/catalog"
	"masterspa/internal/config"
	"masterspa/internal/connectors/woocommerce"
	"masterspa/internal/database"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/services/feed"
	"masterspa/internal/settings"

	"github.com/redis/go-redis/v9"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "log what would change without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.Env)
	defer logger.Sync()

	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var store woocommerce.SettingsStore = settings.NewStore(db.DB)
	if *dryRun {
		store = dryRunSettings{store}
	}

	var client *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL: %v", err)
		}
		client = redis.NewClient(redisOpts)
		defer client.Close()
	}

	opts, err := woocommerce.LockOptions(cfg.ImportLockEnabled, client, cfg.ImportLockTTL, logger)
	if err != nil {
		logger.Fatal("%v", err)
	}

	importer := woocommerce.NewImporter(store, feed.NewClient(logger), catalog.NewStore(db.DB), importlog.NewRepository(db.DB), logger, opts...)

	result, err := importer.Import(context.Background())
	if err != nil {
		logger.Error("Import failed: %v", err)
		os.Exit(1)
	}

	logger.Info("%s", result.Message)
	if !result.Success {
		os.Exit(1)
	}
}

// dryRunSettings forces dry run on top of the stored settings.
type dryRunSettings struct {
	woocommerce.SettingsStore
}

func (d dryRunSettings) Load(ctx context.Context) (settings.Settings, error) {
	s, err := d.SettingsStore.Load(ctx)
	s.DryRun = true
	return s, err
}
