// Package repo implements the persistence layer backed by GORM. This file
// provides the per-feature usage counters and the small aggregate queries
// used to report on them.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/civics-backend/internal/domain"
)

// Usage actions.
const (
	ActionView      = "view"
	ActionDenied    = "denied"
	ActionTruncated = "truncated"
)

// ErrInvalidUsage is returned when a usage hit is missing its feature or tier.
var ErrInvalidUsage = errors.New("invalid usage record")

// TrackUsage increments the counter for (feature, tier, action) on the UTC
// day of now. The first hit of the day records its hour.
func TrackUsage(ctx context.Context, db *gorm.DB, feature, tier, action string, now time.Time) error {
	feature, tier, action = strings.TrimSpace(feature), strings.TrimSpace(tier), strings.TrimSpace(action)
	if feature == "" || tier == "" || action == "" {
		return ErrInvalidUsage
	}
	now = now.UTC()
	row := &domain.UsageMetric{
		Feature:   feature,
		Tier:      tier,
		Action:    action,
		Date:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Hour:      now.Hour(),
		Count:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "feature"}, {Name: "tier"}, {Name: "action"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      gorm.Expr("usage_metrics.count + 1"),
			"updated_at": now,
		}),
	}).Create(row).Error
}

// FeatureUsage is the total hit count of one (feature, action) pair.
type FeatureUsage struct {
	Feature string `json:"feature"`
	Action  string `json:"action"`
	Count   int64  `json:"count"`
}

// UsageSince sums counters for every day on or after since, grouped by
// feature and action, busiest first.
func UsageSince(ctx context.Context, db *gorm.DB, since time.Time) ([]FeatureUsage, error) {
	s := since.UTC()
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)

	var out []FeatureUsage
	err := db.WithContext(ctx).
		Model(&domain.UsageMetric{}).
		Select("feature, action, SUM(count) AS count").
		Where("date >= ?", day).
		Group("feature, action").
		Order("count DESC, feature ASC, action ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DenialsByTier returns how many denied hits each tier produced since the
// given time.
func DenialsByTier(ctx context.Context, db *gorm.DB, since time.Time) (map[string]int64, error) {
	s := since.UTC()
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)

	var rows []struct {
		Tier  string
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&domain.UsageMetric{}).
		Select("tier, SUM(count) AS count").
		Where("action = ? AND date >= ?", ActionDenied, day).
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Tier] = r.Count
	}
	return out, nil
}

// UsageRecorder binds TrackUsage to one database handle for callers that
// only know (feature, tier, action).
type UsageRecorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUsageRecorder returns a recorder writing to db.
func NewUsageRecorder(db *gorm.DB) *UsageRecorder {
	return &UsageRecorder{db: db, now: time.Now}
}

// Track records one hit at the current time.
func (u *UsageRecorder) Track(ctx context.Context, feature, tier, action string) error {
	return TrackUsage(ctx, u.db, feature, tier, action, u.now())
}
