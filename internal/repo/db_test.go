package repo

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/civics-backend/internal/domain"
)

func TestSqliteDSN(t *testing.T) {
	for _, path := range []string{"app.db", "file:app.db?cache=shared"} {
		dsn := sqliteDSN(path)
		base, raw, ok := strings.Cut(dsn, "?")
		if !ok || !strings.HasPrefix(path, base) {
			t.Fatalf("dsn %q lost the path %q", dsn, path)
		}
		q, err := url.ParseQuery(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := q["_pragma"]; len(got) != len(sqlitePragmas) || got[2] != "busy_timeout(5000)" {
			t.Fatalf("pragmas = %v", got)
		}
	}
	if q, _ := url.ParseQuery(strings.SplitN(sqliteDSN("file:x?cache=shared"), "?", 2)[1]); q.Get("cache") != "shared" {
		t.Fatal("existing query parameters must survive")
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing", "civics.db")
	if db, err := OpenSQLite(bad); err == nil || db != nil {
		t.Fatalf("expected error for %q, got db=%v", bad, db)
	}
}

func TestOpenSQLite_PragmasOnEveryConnection(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "civics.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if n := sqlDB.Stats().MaxOpenConnections; n != poolSize {
		t.Fatalf("MaxOpenConnections = %d, want %d", n, poolSize)
	}

	ctx := context.Background()
	// Hold two connections at once so the pool must open a second one.
	c1, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn 1: %v", err)
	}
	defer c1.Close()
	c2, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn 2: %v", err)
	}
	defer c2.Close()

	var busy, sync int
	var journal string
	for i, cx := range []*sql.Conn{c1, c2} {
		if err := cx.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil || busy != 5000 {
			t.Fatalf("conn %d busy_timeout = %d (%v)", i, busy, err)
		}
		if err := cx.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&sync); err != nil || sync != 1 {
			t.Fatalf("conn %d synchronous = %d (%v)", i, sync, err)
		}
		if err := cx.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal); err != nil || !strings.EqualFold(journal, "wal") {
			t.Fatalf("conn %d journal_mode = %q (%v)", i, journal, err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, tbl := range []any{&domain.CachedProfile{}, &domain.CachedZipLookup{}, &domain.UsageMetric{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Fatalf("missing table for %T", tbl)
		}
	}
	if _, err := Ping(ctx, db); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
