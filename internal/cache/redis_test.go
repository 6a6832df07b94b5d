package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/civics-backend/internal/domain"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_ProfileRoundTripAndTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	if p, err := s.GetProfile(ctx, "A000001"); err != nil || p != nil {
		t.Fatalf("miss should be (nil, nil), got %v %v", p, err)
	}

	in := &domain.OfficialProfile{
		Member: domain.MemberDetail{MemberSummary: domain.MemberSummary{BioguideID: "A000001", Name: "Ann Example"}},
		Bills:  []domain.BillSummary{{Type: "HR", Number: 1}},
	}
	if err := s.SetProfile(ctx, in, 30*time.Minute); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	got, err := s.GetProfile(ctx, "A000001")
	if err != nil || got == nil || got.Member.Name != "Ann Example" || len(got.Bills) != 1 {
		t.Fatalf("round trip mismatch: %+v err=%v", got, err)
	}
	if ttl := mr.TTL(profileKeyPrefix + "A000001"); ttl != 30*time.Minute {
		t.Fatalf("ttl=%v; want 30m", ttl)
	}

	mr.FastForward(31 * time.Minute)
	if p, _ := s.GetProfile(ctx, "A000001"); p != nil {
		t.Fatalf("profile should have expired")
	}
}

func TestRedisStore_ZipRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	in := &domain.ZipLookupResult{ZipCode: "94110", State: "CA", Officials: []domain.RepresentativeInfo{{Name: "X"}}}
	if err := s.SetZip(ctx, in, 24*time.Hour); err != nil {
		t.Fatalf("SetZip: %v", err)
	}
	got, err := s.GetZip(ctx, "94110")
	if err != nil || got == nil || got.State != "CA" || len(got.Officials) != 1 {
		t.Fatalf("round trip mismatch: %+v err=%v", got, err)
	}
}

func TestRedisStore_CorruptValueIsMiss(t *testing.T) {
	s, mr := newRedisStore(t)
	if err := mr.Set(zipKeyPrefix+"00000", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if got, err := s.GetZip(context.Background(), "00000"); err != nil || got != nil {
		t.Fatalf("corrupt value should be a miss, got %v %v", got, err)
	}
}

func TestRedisStore_NilValuesRejected(t *testing.T) {
	s, _ := newRedisStore(t)
	if err := s.SetProfile(context.Background(), nil, time.Minute); err == nil {
		t.Fatalf("nil profile should be rejected")
	}
	if err := s.SetZip(context.Background(), nil, time.Minute); err == nil {
		t.Fatalf("nil zip should be rejected")
	}
}

func TestRedisStore_PingAndPurge(t *testing.T) {
	s, _ := newRedisStore(t)
	if _, err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if n, err := s.PurgeExpired(context.Background()); n != 0 || err != nil {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
}

func TestNewRedisStoreWithURL_BadURL(t *testing.T) {
	if _, err := NewRedisStoreWithURL("not-a-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
