package market

import (
	"strings"
	"time"
)

// UnknownProduct is the product name used when the page title could not be located
const UnknownProduct = "Unknown Product"

// UnknownText is the display and storage form of an Unknown field
const UnknownText = "N/A"

// DateLayout is the day-granularity layout used for observation dates
const DateLayout = "2006-01-02"

// Field is either a known display value or Unknown.
// The zero value is Unknown.
type Field struct {
	text  string
	known bool
}

// Known returns a field holding the trimmed display text.
// Empty text and the literal "N/A" collapse to Unknown so that a stored
// field always reads back the same way it was written.
func Known(text string) Field {
	text = strings.TrimSpace(text)
	if text == "" || text == UnknownText {
		return Field{}
	}
	return Field{text: text, known: true}
}

// Unknown returns the Unknown sentinel
func Unknown() Field {
	return Field{}
}

// Value returns the display text and whether the field is known
func (f Field) Value() (string, bool) {
	return f.text, f.known
}

// IsKnown reports whether the field holds a located value
func (f Field) IsKnown() bool {
	return f.known
}

// String returns the display text, or "N/A" for Unknown
func (f Field) String() string {
	if !f.known {
		return UnknownText
	}
	return f.text
}

// Observation is one scrape result for one product at one day
type Observation struct {
	ProductName    string
	Date           time.Time
	MarketPrice    Field
	MostRecentSale Field
	ListedMedian   Field
	CurrentQty     Field
	CurrentSellers Field
	TotalSold      Field
}

// DateString formats the observation date as YYYY-MM-DD
func (o Observation) DateString() string {
	return o.Date.Format(DateLayout)
}

// Day truncates t to its calendar day, dropping the zone
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// DerivedMetrics are the deltas computed when an observation is appended
type DerivedMetrics struct {
	PriceChange    float64 `json:"price_change"`
	QuantityChange int64   `json:"quantity_change"`
	PeriodSales    int64   `json:"period_sales"`
}

// Record is a stored observation together with its metrics
type Record struct {
	Observation
	Metrics DerivedMetrics
}

// Series is the ordered history of one product
type Series struct {
	Key     string
	Name    string
	Records []Record
}

// Len returns the number of records
func (s Series) Len() int {
	return len(s.Records)
}

// Last returns the most recent record
func (s Series) Last() (Record, bool) {
	if len(s.Records) == 0 {
		return Record{}, false
	}
	return s.Records[len(s.Records)-1], true
}

// Append adds a record to the end of the series
func (s *Series) Append(r Record) {
	s.Records = append(s.Records, r)
	if r.ProductName != "" {
		s.Name = r.ProductName
	}
}

// RollingPoint is one value of a trailing average
type RollingPoint struct {
	Date  time.Time
	Value float64
	OK    bool
}

// Persisted column names, in storage order
const (
	ColumnDate           = "Date"
	ColumnMarketPrice    = "Market Price"
	ColumnMostRecentSale = "Most Recent Sale"
	ColumnListedMedian   = "Listed Median"
	ColumnCurrentQty     = "Current Quantity"
	ColumnCurrentSellers = "Current Sellers"
	ColumnTotalSold      = "Total Sold"
	ColumnPriceChange    = "Price Change"
	ColumnQuantityChange = "Quantity Change"
	ColumnDailySales     = "Daily Sales"
)

// Columns lists every persisted column in stable order
var Columns = []string{
	ColumnDate,
	ColumnMarketPrice,
	ColumnMostRecentSale,
	ColumnListedMedian,
	ColumnCurrentQty,
	ColumnCurrentSellers,
	ColumnTotalSold,
	ColumnPriceChange,
	ColumnQuantityChange,
	ColumnDailySales,
}

// FieldColumns lists the observed text fields in storage order
var FieldColumns = Columns[1:7]

// FieldRef returns a pointer to the observed field stored under column,
// or nil when column is not an observed field.
func (o *Observation) FieldRef(column string) *Field {
	switch column {
	case ColumnMarketPrice:
		return &o.MarketPrice
	case ColumnMostRecentSale:
		return &o.MostRecentSale
	case ColumnListedMedian:
		return &o.ListedMedian
	case ColumnCurrentQty:
		return &o.CurrentQty
	case ColumnCurrentSellers:
		return &o.CurrentSellers
	case ColumnTotalSold:
		return &o.TotalSold
	}
	return nil
}
