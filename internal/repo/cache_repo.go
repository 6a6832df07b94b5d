// Package repo implements the persistence layer backed by GORM. This file
// provides the SQLite-backed durable cache for full profiles and zip lookups.
//
// Rows carry an absolute expires_at. Reads treat expired rows as absent;
// PurgeExpired removes them in bulk.
//
// Error semantics:
//   - A miss (absent or expired) returns (nil, nil).
//   - A row whose payload cannot be decoded is treated as a miss.
//   - On DB errors, the raw gorm error is wrapped and propagated.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/observability"
)

// CacheStore is the SQLite implementation of the durable cache.
type CacheStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCacheStore wraps db. Tables must already be migrated.
func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{db: db, now: time.Now}
}

// DB exposes the underlying handle for usage tracking and health checks.
func (s *CacheStore) DB() *gorm.DB { return s.db }

// GetProfile returns the live cached profile for bioguideID.
func (s *CacheStore) GetProfile(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error) {
	var row domain.CachedProfile
	err := s.db.WithContext(ctx).
		Where("bioguide_id = ? AND expires_at > ?", bioguideID, s.now().UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.CacheLookup("sqlite", false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached profile %s: %w", bioguideID, err)
	}

	var p domain.OfficialProfile
	if err := json.Unmarshal(row.Data, &p); err != nil {
		observability.CacheLookup("sqlite", false)
		return nil, nil
	}
	observability.CacheLookup("sqlite", true)
	return &p, nil
}

// SetProfile upserts p with an expiry of now+ttl.
func (s *CacheStore) SetProfile(ctx context.Context, p *domain.OfficialProfile, ttl time.Duration) error {
	if p == nil {
		return errors.New("profile is nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	now := s.now().UTC()
	row := &domain.CachedProfile{
		BioguideID: p.Member.BioguideID,
		Name:       p.Member.Name,
		Data:       data,
		FetchedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bioguide_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "data", "fetched_at", "expires_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("set cached profile %s: %w", p.Member.BioguideID, err)
	}
	return nil
}

// GetZip returns the live cached lookup for zip.
func (s *CacheStore) GetZip(ctx context.Context, zip string) (*domain.ZipLookupResult, error) {
	var row domain.CachedZipLookup
	err := s.db.WithContext(ctx).
		Where("zip_code = ? AND expires_at > ?", zip, s.now().UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.CacheLookup("sqlite", false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached zip %s: %w", zip, err)
	}

	var r domain.ZipLookupResult
	if err := json.Unmarshal(row.Data, &r); err != nil {
		observability.CacheLookup("sqlite", false)
		return nil, nil
	}
	observability.CacheLookup("sqlite", true)
	return &r, nil
}

// SetZip upserts r with an expiry of now+ttl.
func (s *CacheStore) SetZip(ctx context.Context, r *domain.ZipLookupResult, ttl time.Duration) error {
	if r == nil {
		return errors.New("zip lookup is nil")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode zip lookup: %w", err)
	}
	now := s.now().UTC()
	row := &domain.CachedZipLookup{
		ZipCode:   r.ZipCode,
		State:     r.State,
		Data:      data,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "zip_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "data", "fetched_at", "expires_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("set cached zip %s: %w", r.ZipCode, err)
	}
	return nil
}

// PurgeExpired deletes every expired profile and zip row and returns how
// many were removed.
func (s *CacheStore) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at <= ?", now).Delete(&domain.CachedProfile{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("expires_at <= ?", now).Delete(&domain.CachedZipLookup{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired cache rows: %w", err)
	}
	return total, nil
}

// Ping reports database round-trip latency.
func (s *CacheStore) Ping(ctx context.Context) (time.Duration, error) {
	return Ping(ctx, s.db)
}
