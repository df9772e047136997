package cache

import (
	"errors"
	"strings"
	"time"

	"sjsage522/pricetracker/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache. Keys are
// namespaced with an optional prefix.
type MemcacheService struct {
	client *memcache.Client
	prefix string
}

// NewMemcacheService creates a memcache-backed cache
func NewMemcacheService(serverAddr, prefix string) *MemcacheService {
	logger.ForCache().Debug().
		Str("backend", "memcache").
		Str("addr", serverAddr).
		Str("prefix", prefix).
		Msg("Cache client created")

	return &MemcacheService{
		client: memcache.New(serverAddr),
		prefix: prefix,
	}
}

// memcache keys may not contain spaces or control characters
func (m *MemcacheService) key(key string) string {
	if m.prefix != "" {
		key = m.prefix + "_" + key
	}
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, key)
}

// expirationSeconds converts d to memcache's expiration. Zero means no
// expiry in memcache, so any positive duration is at least one second.
func expirationSeconds(d time.Duration) int32 {
	if d <= 0 {
		return 0
	}
	return int32((d + time.Second - 1) / time.Second)
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      value,
		Expiration: expirationSeconds(expiration),
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
