package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/logger"
	trackerr "sjsage522/pricetracker/pkg/errors"
	"sjsage522/pricetracker/services/cache"
)

// ErrBlocked is returned while a rate-limit block key is cached
var ErrBlocked = errors.New("fetching blocked")

// FetchFunc performs the actual page request
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)

// HTTPFetcher fetches pages with plain GET requests. A rate-limited
// response trips the gate, and no request is sent while it is closed.
type HTTPFetcher struct {
	Gate *cache.Gate

	fetch FetchFunc
	now   func() time.Time
}

// NewHTTPFetcher creates a fetcher whose block window of blockTime is kept
// under blockKey in cacheSvc. A nil cacheSvc disables blocking.
func NewHTTPFetcher(cacheSvc cache.CacheService, blockKey string, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Gate:  cache.NewGate(cacheSvc, blockKey, blockTime),
		fetch: helpers.FetchPage,
		now:   time.Now,
	}
}

// GetName returns the fetcher's name for logging
func (f *HTTPFetcher) GetName() string {
	return "http"
}

// Fetch fetches url unless the marketplace block window is open
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	now := time.Now
	if f.now != nil {
		now = f.now
	}

	if remaining := f.Gate.Remaining(now()); remaining > 0 {
		return nil, fmt.Errorf("%w: %s for another %s", ErrBlocked, f.Gate.Key(), remaining.Round(time.Second))
	}

	fetch := f.fetch
	if fetch == nil {
		fetch = helpers.FetchPage
	}

	body, err := fetch(ctx, url)
	if errors.Is(err, helpers.ErrRateLimited) {
		if tripErr := f.Gate.Trip(now()); tripErr != nil {
			logger.ForFetcher(f.GetName()).Warn().
				Err(trackerr.NewCache(url, "failed to set rate limit block", tripErr)).
				Str("key", f.Gate.Key()).
				Msg("Rate limit block not recorded")
		}
	}
	if err != nil {
		return nil, err
	}

	return body, nil
}
