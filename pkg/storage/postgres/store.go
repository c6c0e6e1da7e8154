package postgres

import (
	"context"
	"errors"
	"fmt"

	"livechart/internal/cache"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Get implements cache.Store.
func (p *PostgresClient) Get(ctx context.Context, key string) (cache.Record, error) {
	var rec SeriesRecord
	err := p.DB.WithContext(ctx).
		Where("key = ?", key).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cache.Record{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Record{}, fmt.Errorf("select %q: %w", key, err)
	}
	return cache.Record{Key: rec.Key, Data: rec.Data, ExpiresAt: rec.ExpiresAt}, nil
}

// Put implements cache.Store. An existing row for the key is overwritten.
func (p *PostgresClient) Put(ctx context.Context, rec cache.Record) error {
	row := &SeriesRecord{Key: rec.Key, Data: rec.Data, ExpiresAt: rec.ExpiresAt}
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(row)
	if tx.Error != nil {
		return fmt.Errorf("upsert %q: %w", rec.Key, tx.Error)
	}
	return nil
}
