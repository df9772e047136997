package crawler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"sjsage522/pricetracker/internal/market"

	"github.com/PuerkitoBio/goquery"
)

// ErrExtractionFailed is returned when the page tree cannot be traversed
var ErrExtractionFailed = errors.New("extraction failed")

// Selectors of the marketplace product page
const (
	titleSelector      = "h1.product-details__name"
	priceGuideSection  = "section.price-guide__points"
	salesDataSection   = "section.sales-data"
	upperTitleSelector = "span.price-points__upper__header__title"
	upperPriceSelector = "span.price-points__upper__price"
	lowerLabelSelector = "span.text"
	lowerPriceSelector = "span.price-points__lower__price"
	salesPriceSelector = "span.sales-data__price"
	waitForSelector    = "section.product-details__price-guide"
)

// DefaultLayout returns the product page layout, including both variants
// of the quantity/sellers rows.
func DefaultLayout() Layout {
	lower := func(label string) Query {
		return Query{
			LabelSelector: lowerLabelSelector,
			Label:         label,
			ValueSelector: lowerPriceSelector,
			Mode:          ModeSiblingCell,
		}
	}
	sharedRow := func(index int) Query {
		return Query{
			LabelSelector: lowerLabelSelector,
			Label:         "Current Quantity:",
			ValueSelector: lowerPriceSelector,
			Mode:          ModeRowPair,
			Index:         index,
		}
	}

	return Layout{
		Title:   titleSelector,
		WaitFor: waitForSelector,
		Fields: []FieldSpec{
			{
				Column:  market.ColumnMarketPrice,
				Section: priceGuideSection,
				Queries: []Query{
					{LabelSelector: upperTitleSelector, Label: "Market Price", ValueSelector: upperPriceSelector, Mode: ModeRowPrice},
				},
			},
			{
				Column:  market.ColumnMostRecentSale,
				Section: priceGuideSection,
				Queries: []Query{
					{LabelSelector: "span", Label: "Most Recent Sale", ValueSelector: upperPriceSelector, Mode: ModeRowPrice},
				},
			},
			{
				Column:  market.ColumnListedMedian,
				Section: priceGuideSection,
				Queries: []Query{lower("Listed Median:")},
			},
			{
				Column:  market.ColumnCurrentQty,
				Section: priceGuideSection,
				Queries: []Query{sharedRow(0), lower("Current Quantity:")},
			},
			{
				Column:  market.ColumnCurrentSellers,
				Section: priceGuideSection,
				Queries: []Query{sharedRow(1), lower("Current Sellers:")},
			},
			{
				Column:  market.ColumnTotalSold,
				Section: salesDataSection,
				Queries: []Query{
					{LabelSelector: lowerLabelSelector, Label: "Total Sold:", ValueSelector: salesPriceSelector, Mode: ModeSiblingCell},
				},
			},
		},
	}
}

// Extractor builds observations from product page trees
type Extractor struct {
	Layout Layout
	// Now is the clock used to date observations
	Now func() time.Time
}

// NewExtractor creates an extractor for the given layout
func NewExtractor(layout Layout) *Extractor {
	return &Extractor{
		Layout: layout,
		Now:    time.Now,
	}
}

// ExtractFromReader parses r and extracts it
func (e *Extractor) ExtractFromReader(r io.Reader) (*Result, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no content", ErrExtractionFailed)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return e.Extract(doc)
}

// Extract reads the product name and every field of the layout from doc.
// Fields that cannot be located are Unknown; only an unusable tree is an error.
func (e *Extractor) Extract(doc *goquery.Document) (*Result, error) {
	if doc == nil || doc.Selection == nil || doc.Length() == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrExtractionFailed)
	}

	body := doc.Find("body")
	if body.Children().Length() == 0 && strings.TrimSpace(body.Text()) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrExtractionFailed)
	}

	result := &Result{ProductName: market.UnknownProduct}

	if e.Layout.Title != "" {
		if name := strings.TrimSpace(doc.Find(e.Layout.Title).First().Text()); name != "" {
			result.ProductName = name
		}
	}
	result.Degraded = result.ProductName == market.UnknownProduct

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	result.Observation = market.Observation{
		ProductName: result.ProductName,
		Date:        market.Day(now()),
	}

	for _, spec := range e.Layout.Fields {
		ref := result.Observation.FieldRef(spec.Column)
		if ref == nil {
			continue
		}
		*ref = LocateField(doc.Selection, spec)
	}

	return result, nil
}
