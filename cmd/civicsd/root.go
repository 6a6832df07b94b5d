package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/civics-backend/internal/cache"
	"github.com/tbourn/civics-backend/internal/config"
	"github.com/tbourn/civics-backend/internal/repo"
	"github.com/tbourn/civics-backend/internal/services"
	"github.com/tbourn/civics-backend/internal/sysutil"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "civicsd",
		Short:         "Aggregated public data on US federal legislators",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPurgeCacheCmd(), newFeaturesCmd(), newUsageCmd())
	return root
}

// loadConfig reads the environment and installs the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
	sysutil.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

// durableStore is the persistent cache tier. Both backends satisfy it.
type durableStore interface {
	services.DurableCache
	PurgeExpired(ctx context.Context) (int64, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// openStorage opens the SQLite database (always needed for usage counters)
// and the configured durable cache. The returned func closes both.
func openStorage(cfg config.Config) (*gorm.DB, durableStore, func(), error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open db %q: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if cfg.Cache.Backend != "redis" {
		return db, repo.NewCacheStore(db), closeDB, nil
	}
	rs, err := cache.NewRedisStoreWithURL(cfg.Cache.RedisURL)
	if err != nil {
		closeDB()
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}
	return db, rs, func() {
		_ = rs.Close()
		closeDB()
	}, nil
}
