package repository

import (
	"context"

	"gorm.io/gorm"
)

const incrementCounterSQL = `
INSERT INTO counters ("key", seq) VALUES (?, 1)
ON CONFLICT ("key") DO UPDATE SET seq = counters.seq + 1
RETURNING seq`

const currentCounterSQL = `SELECT seq FROM counters WHERE "key" = ?`

// CounterRepository keeps serial counters in the counters table.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Increment upserts the row for key and bumps seq in one statement, so
// concurrent callers are serialized by the row lock.
func (r *CounterRepository) Increment(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(incrementCounterSQL, key).Scan(&seq).Error
	return seq, err
}

// Current reads seq without changing it. An absent row reads as 0.
func (r *CounterRepository) Current(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(currentCounterSQL, key).Scan(&seq).Error
	return seq, err
}
