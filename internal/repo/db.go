// Package repo implements the persistence layer backed by GORM: the durable
// profile and zip cache and the per-feature usage counters.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/civics-backend/internal/domain"
)

const (
	poolSize      = 8
	slowQueryTime = 200 * time.Millisecond
)

// sqlitePragmas go through the DSN so every pooled connection gets them,
// not only the first one.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range sqlitePragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// zerologWriter routes GORM's slow-query and error lines into the process
// logger.
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func gormLogger() logger.Interface {
	return logger.New(zerologWriter{}, logger.Config{
		SlowThreshold:             slowQueryTime,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// OpenSQLite opens (or creates) the database file at path with the tracing
// plugin installed. The parent directory must already exist.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(poolSize)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// AutoMigrate creates or updates the cache and usage tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.CachedProfile{},
		&domain.CachedZipLookup{},
		&domain.UsageMetric{},
	)
}

// Ping runs a trivial query and reports its latency.
func Ping(ctx context.Context, db *gorm.DB) (time.Duration, error) {
	start := time.Now()
	var one int
	err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
	return time.Since(start), err
}
