package postgres

import "time"

// SeriesRecord is one cached series envelope.
type SeriesRecord struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Data      []byte    `gorm:"type:bytea;not null"`
	ExpiresAt time.Time `gorm:"not null;index:idx_series_cache_expires_at"`

	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name for GORM.
func (SeriesRecord) TableName() string {
	return "series_cache"
}
