// Package cache holds the Redis-backed menu cache.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"pizzastore/config"
)

const (
	prefix     = "pizzastore:menu:"
	versionKey = prefix + "version"
)

// Redis caches menu listings under keys namespaced by a version counter.
// Bumping the counter orphans every older entry; they expire on their TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Connect builds a client from config and checks it answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (r *Redis) version(ctx context.Context) (int64, error) {
	v, err := r.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Key returns the versioned redis key for a cache key.
func Key(version int64, key string) string {
	return prefix + "v" + strconv.FormatInt(version, 10) + ":" + key
}

// Get looks key up in the current generation and returns that generation,
// hit or miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	gen, err := r.version(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := r.rdb.Get(ctx, Key(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	return raw, gen, true, nil
}

// Set stores value under gen. A gen older than the current version writes a
// key no reader will ask for; it ages out on the TTL.
func (r *Redis) Set(ctx context.Context, gen int64, key string, value []byte) error {
	return r.rdb.Set(ctx, Key(gen, key), value, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.rdb.Incr(ctx, versionKey).Err()
}
