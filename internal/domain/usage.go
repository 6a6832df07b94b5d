package domain

import "time"

// UsageMetric counts how often a feature was hit per tier and action on a
// given day. Hour records the hour of the first hit of the day.
//
// Fields:
//   - Feature: feature id from the tier table (e.g. "finance.summary").
//   - Tier: caller tier at the time of the hit.
//   - Action: "view", "denied" or "truncated".
//   - Date: UTC midnight of the day being counted.
//   - Count: incremented on every hit; unique per (feature, tier, action, date).
type UsageMetric struct {
	ID        uint      `json:"id"      gorm:"primaryKey;autoIncrement"`
	Feature   string    `json:"feature" gorm:"type:varchar(64);not null;uniqueIndex:ux_usage_key,priority:1"`
	Tier      string    `json:"tier"    gorm:"type:varchar(16);not null;uniqueIndex:ux_usage_key,priority:2"`
	Action    string    `json:"action"  gorm:"type:varchar(16);not null;uniqueIndex:ux_usage_key,priority:3"`
	Date      time.Time `json:"date"    gorm:"not null;uniqueIndex:ux_usage_key,priority:4"`
	Hour      int       `json:"hour"    gorm:"not null;check:hour >= 0 AND hour < 24"`
	Count     int64     `json:"count"   gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageMetric.
func (UsageMetric) TableName() string { return "usage_metrics" }
