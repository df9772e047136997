package cache

import (
	"context"
	"errors"
	"time"

	"sjsage522/pricetracker/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCacheService implements CacheService on plain redis string keys
type RedisCacheService struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedisCacheService creates a cache that namespaces keys with prefix
func NewRedisCacheService(ctx context.Context, addr string, db int, prefix string) *RedisCacheService {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	logger.ForCache().Debug().
		Str("backend", "redis").
		Str("addr", addr).
		Str("prefix", prefix).
		Msg("Cache client created")

	return &RedisCacheService{
		client: client,
		ctx:    ctx,
		prefix: prefix,
	}
}

func (r *RedisCacheService) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get retrieves a value from redis
func (r *RedisCacheService) Get(key string) ([]byte, error) {
	value, err := r.client.Get(r.ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a value in redis with an expiration time
func (r *RedisCacheService) Set(key string, value []byte, expiration time.Duration) error {
	return r.client.Set(r.ctx, r.key(key), value, expiration).Err()
}

// Delete removes a value from redis
func (r *RedisCacheService) Delete(key string) error {
	return r.client.Del(r.ctx, r.key(key)).Err()
}

// Close closes the redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}
