package cache

import (
	"errors"
	"strconv"
	"time"
)

// ErrCacheMiss is returned by Get when the key is not present
var ErrCacheMiss = errors.New("cache miss")

// CacheService is the key/value store backing fetch rate-limit windows
type CacheService interface {
	// Get retrieves a value, or ErrCacheMiss
	Get(key string) ([]byte, error)

	// Set stores a value that expires after expiration
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value; deleting a missing key is not an error
	Delete(key string) error
}

// Gate tracks a marketplace block window under a single cache key.
// The cached value is the unix deadline of the window. A nil Gate, or one
// without a service or key, never blocks.
type Gate struct {
	svc    CacheService
	key    string
	window time.Duration
}

// NewGate creates a gate that blocks for window once tripped
func NewGate(svc CacheService, key string, window time.Duration) *Gate {
	return &Gate{
		svc:    svc,
		key:    key,
		window: window,
	}
}

// Key returns the cache key of the gate
func (g *Gate) Key() string {
	if g == nil {
		return ""
	}
	return g.key
}

func (g *Gate) enabled() bool {
	return g != nil && g.svc != nil && g.key != ""
}

// Remaining returns how long the gate stays closed after now. Zero means
// requests may proceed. A cached value that is not a deadline counts as a
// full window.
func (g *Gate) Remaining(now time.Time) time.Duration {
	if !g.enabled() {
		return 0
	}

	value, err := g.svc.Get(g.key)
	if err != nil {
		return 0
	}

	deadline, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return g.window
	}
	remaining := time.Unix(deadline, 0).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// Trip closes the gate for the configured window starting at now
func (g *Gate) Trip(now time.Time) error {
	if !g.enabled() || g.window <= 0 {
		return nil
	}
	deadline := now.Add(g.window).Unix()
	return g.svc.Set(g.key, []byte(strconv.FormatInt(deadline, 10)), g.window)
}

// Reset opens the gate
func (g *Gate) Reset() error {
	if !g.enabled() {
		return nil
	}
	return g.svc.Delete(g.key)
}
