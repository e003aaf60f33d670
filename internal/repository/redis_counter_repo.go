package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const counterKeyPrefix = "medbill:counter:"

// RedisCounterRepository keeps serial counters as Redis integers; INCR
// creates a missing key at 1.
type RedisCounterRepository struct {
	rdb *redis.Client
}

func NewRedisCounterRepository(rdb *redis.Client) *RedisCounterRepository {
	return &RedisCounterRepository{rdb: rdb}
}

func (r *RedisCounterRepository) Increment(ctx context.Context, key string) (int64, error) {
	return r.rdb.Incr(ctx, counterKeyPrefix+key).Result()
}

func (r *RedisCounterRepository) Current(ctx context.Context, key string) (int64, error) {
	seq, err := r.rdb.Get(ctx, counterKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return seq, err
}
