package crawler

import (
	"context"
	"io"

	"sjsage522/pricetracker/internal/market"
)

// Result is one extracted product page
type Result struct {
	ProductName string
	Observation market.Observation
	// Degraded is set when the product title was not found
	Degraded bool
}

// Fetcher retrieves the rendered HTML of a page
type Fetcher interface {
	// Fetch returns the UTF-8 page content
	Fetch(ctx context.Context, url string) (io.Reader, error)

	// GetName returns the fetcher's name for logging
	GetName() string
}

// PageCrawler turns a product URL into an extraction result
type PageCrawler interface {
	Crawl(ctx context.Context, url string) (*Result, error)
}

// Mode describes where a value sits relative to its label
type Mode int

const (
	// ModeRowPrice takes the first value node in the label's table row
	ModeRowPrice Mode = iota
	// ModeSiblingCell takes the value node nested in the cell after the label's cell
	ModeSiblingCell
	// ModeRowPair takes the Index-th value node in the label's table row
	ModeRowPair
)

// Query describes one way of locating a labeled value
type Query struct {
	// LabelSelector selects candidate label nodes
	LabelSelector string
	// Label is matched as a substring of the candidate's trimmed text
	Label string
	// ValueSelector selects value nodes relative to the label
	ValueSelector string
	Mode          Mode
	// Index picks the value node for ModeRowPair
	Index int
}

// FieldSpec locates one observed field. Queries are layout variants tried
// in order; the first known value wins.
type FieldSpec struct {
	Column  string
	Section string
	Queries []Query
}

// Layout holds the selectors of a product page
type Layout struct {
	Title   string
	WaitFor string
	Fields  []FieldSpec
}
