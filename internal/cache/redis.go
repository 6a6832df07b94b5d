package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/observability"
)

const (
	profileKeyPrefix = "civics:profile:"
	zipKeyPrefix     = "civics:zip:"
)

// RedisStore is a durable cache for full profiles and zip lookups. Expiry
// is delegated to Redis key TTLs, so PurgeExpired has nothing to do.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreWithURL dials Redis from a redis:// URL.
func NewRedisStoreWithURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

// GetProfile returns the cached profile or (nil, nil) on a miss.
func (s *RedisStore) GetProfile(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error) {
	var p domain.OfficialProfile
	ok, err := s.get(ctx, profileKeyPrefix+bioguideID, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// SetProfile stores p under its bioguide id for ttl.
func (s *RedisStore) SetProfile(ctx context.Context, p *domain.OfficialProfile, ttl time.Duration) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	return s.set(ctx, profileKeyPrefix+p.Member.BioguideID, p, ttl)
}

// GetZip returns the cached zip lookup or (nil, nil) on a miss.
func (s *RedisStore) GetZip(ctx context.Context, zip string) (*domain.ZipLookupResult, error) {
	var r domain.ZipLookupResult
	ok, err := s.get(ctx, zipKeyPrefix+zip, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// SetZip stores r under its zip code for ttl.
func (s *RedisStore) SetZip(ctx context.Context, r *domain.ZipLookupResult, ttl time.Duration) error {
	if r == nil {
		return errors.New("zip lookup is nil")
	}
	return s.set(ctx, zipKeyPrefix+r.ZipCode, r, ttl)
}

// PurgeExpired is a no-op: Redis expires keys itself.
func (s *RedisStore) PurgeExpired(context.Context) (int64, error) { return 0, nil }

// Ping checks connectivity and reports round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := s.client.Ping(ctx).Err()
	return time.Since(start), err
}

func (s *RedisStore) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.CacheLookup("redis", false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A row we cannot decode is as good as absent.
		observability.CacheLookup("redis", false)
		return false, nil
	}
	observability.CacheLookup("redis", true)
	return true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
