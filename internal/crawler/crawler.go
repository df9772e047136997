package crawler

import (
	"context"
	"errors"

	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/logger"
	trackerr "sjsage522/pricetracker/pkg/errors"
)

// ProductCrawler fetches a product page and extracts it
type ProductCrawler struct {
	Fetcher   Fetcher
	Extractor *Extractor
}

// NewProductCrawler creates a crawler from a fetcher and an extractor
func NewProductCrawler(fetcher Fetcher, extractor *Extractor) *ProductCrawler {
	if extractor == nil {
		extractor = NewExtractor(DefaultLayout())
	}
	return &ProductCrawler{
		Fetcher:   fetcher,
		Extractor: extractor,
	}
}

// Crawl fetches url and returns the extracted result. Fetch failures are
// network errors and unusable pages are extraction errors; both wrap the
// underlying cause.
func (c *ProductCrawler) Crawl(ctx context.Context, url string) (*Result, error) {
	log := logger.ForProduct(url)
	if id, err := helpers.ProductIDFromURL(url); err == nil {
		log = log.WithField("product_id", id)
	}

	body, err := c.Fetcher.Fetch(ctx, url)
	if errors.Is(err, helpers.ErrRateLimited) || errors.Is(err, ErrBlocked) {
		return nil, trackerr.New(trackerr.ErrorTypeRateLimit, url, "marketplace is rate limiting requests", err)
	}
	if err != nil {
		log.WithError(err).Debug().Str("fetcher", c.Fetcher.GetName()).Msg("Fetch failed")
		return nil, trackerr.NewNetwork(url, "failed to fetch product page via "+c.Fetcher.GetName(), err)
	}

	result, err := c.Extractor.ExtractFromReader(body)
	if err != nil {
		return nil, trackerr.NewExtraction(url, "failed to extract product page", err)
	}

	log.Debug().
		Str("product", result.ProductName).
		Bool("degraded", result.Degraded).
		Str("market_price", result.Observation.MarketPrice.String()).
		Msg("Product page extracted")

	return result, nil
}
