package crawler

import (
	"errors"
	"strings"
	"testing"
	"time"

	"sjsage522/pricetracker/internal/market"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 18, 42, 7, 0, time.Local)
}

func newTestExtractor() *Extractor {
	e := NewExtractor(DefaultLayout())
	e.Now = fixedClock
	return e
}

func TestExtract(t *testing.T) {
	result, err := newTestExtractor().ExtractFromReader(strings.NewReader(productPage))
	require.NoError(t, err)

	assert.Equal(t, "Scarlet & Violet Booster Box", result.ProductName)
	assert.False(t, result.Degraded)

	obs := result.Observation
	assert.Equal(t, "Scarlet & Violet Booster Box", obs.ProductName)
	assert.Equal(t, "2024-03-15", obs.DateString())
	assert.Equal(t, "$1,234.56", obs.MarketPrice.String())
	assert.Equal(t, "$1,200.00", obs.MostRecentSale.String())
	assert.Equal(t, "$1,250.00", obs.ListedMedian.String())
	assert.Equal(t, "45", obs.CurrentQty.String())
	assert.Equal(t, "12", obs.CurrentSellers.String())
	assert.Equal(t, "1,020", obs.TotalSold.String())
}

func TestExtractSplitRows(t *testing.T) {
	result, err := newTestExtractor().ExtractFromReader(strings.NewReader(splitRowsPage))
	require.NoError(t, err)

	assert.Equal(t, "7", result.Observation.CurrentQty.String())
	assert.Equal(t, "3", result.Observation.CurrentSellers.String())
	assert.False(t, result.Observation.MarketPrice.IsKnown())
}

func TestExtractMissingPriceGuide(t *testing.T) {
	result, err := newTestExtractor().ExtractFromReader(strings.NewReader(noPriceGuidePage))
	require.NoError(t, err)

	assert.Equal(t, "Obsidian Flames Booster Box", result.ProductName)
	assert.False(t, result.Degraded)
	for _, column := range market.FieldColumns {
		ref := result.Observation.FieldRef(column)
		require.NotNil(t, ref, column)
		assert.False(t, ref.IsKnown(), column)
	}
}

func TestExtractUntitled(t *testing.T) {
	result, err := newTestExtractor().ExtractFromReader(strings.NewReader(untitledPage))
	require.NoError(t, err)

	assert.Equal(t, market.UnknownProduct, result.ProductName)
	assert.Equal(t, market.UnknownProduct, result.Observation.ProductName)
	assert.True(t, result.Degraded)
	assert.Equal(t, "$99.99", result.Observation.MarketPrice.String())
}

func TestExtractFailures(t *testing.T) {
	e := newTestExtractor()

	_, err := e.ExtractFromReader(nil)
	assert.True(t, errors.Is(err, ErrExtractionFailed))

	_, err = e.ExtractFromReader(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrExtractionFailed))

	_, err = e.ExtractFromReader(strings.NewReader("<html><body>   </body></html>"))
	assert.True(t, errors.Is(err, ErrExtractionFailed))

	_, err = e.Extract(nil)
	assert.True(t, errors.Is(err, ErrExtractionFailed))

	_, err = e.Extract(&goquery.Document{})
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}

func TestExtractIsDeterministic(t *testing.T) {
	e := newTestExtractor()
	doc := parse(t, productPage)

	first, err := e.Extract(doc)
	require.NoError(t, err)
	second, err := e.Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
