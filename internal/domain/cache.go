package domain

import "time"

// CachedProfile is a durable-cache row holding a serialized OfficialProfile.
// Rows past ExpiresAt are treated as absent and removed by the purge job.
type CachedProfile struct {
	BioguideID string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Name       string    `gorm:"type:TEXT NOT NULL"`
	Data       []byte    `gorm:"type:BLOB NOT NULL"`
	FetchedAt  time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (CachedProfile) TableName() string { return "cached_profiles" }

// CachedZipLookup is a durable-cache row holding a serialized ZipLookupResult.
type CachedZipLookup struct {
	ZipCode   string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	State     string    `gorm:"type:TEXT NOT NULL;index"`
	District  string    `gorm:"type:TEXT NOT NULL;default:''"`
	Data      []byte    `gorm:"type:BLOB NOT NULL"`
	FetchedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (CachedZipLookup) TableName() string { return "cached_zip_lookups" }
