package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (CachedProfile{}).TableName() != "cached_profiles" {
		t.Fatalf("CachedProfile.TableName() = %q", (CachedProfile{}).TableName())
	}
	if (CachedZipLookup{}).TableName() != "cached_zip_lookups" {
		t.Fatalf("CachedZipLookup.TableName() = %q", (CachedZipLookup{}).TableName())
	}
	if (UsageMetric{}).TableName() != "usage_metrics" {
		t.Fatalf("UsageMetric.TableName() = %q", (UsageMetric{}).TableName())
	}
}

func TestMigrations_AndConstraints(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&CachedProfile{}, &CachedZipLookup{}, &UsageMetric{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&CachedProfile{}, &CachedZipLookup{}, &UsageMetric{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&UsageMetric{}, "ux_usage_key") {
		t.Fatalf("expected unique index ux_usage_key on usage_metrics")
	}

	now := time.Now().UTC()
	p := &CachedProfile{BioguideID: "A000001", Name: "Ann", Data: []byte(`{}`), FetchedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert profile: %v", err)
	}
	dup := &CachedProfile{BioguideID: "A000001", Name: "Ann", Data: []byte(`{}`), FetchedAt: now, ExpiresAt: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected primary key violation on duplicate bioguide id")
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	u1 := &UsageMetric{Feature: "finance.summary", Tier: "free", Action: "denied", Date: day, Hour: 3, Count: 1}
	if err := db.Create(u1).Error; err != nil {
		t.Fatalf("insert usage: %v", err)
	}
	u2 := &UsageMetric{Feature: "finance.summary", Tier: "free", Action: "denied", Date: day, Hour: 4, Count: 1}
	if err := db.Create(u2).Error; err == nil {
		t.Fatalf("expected unique violation on (feature,tier,action,date)")
	}
	bad := &UsageMetric{Feature: "x", Tier: "free", Action: "view", Date: day, Hour: 24, Count: 1}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check constraint violation for hour=24")
	}
}
