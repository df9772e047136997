package market

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrEmptySeries is returned when summarizing a series with no records
	ErrEmptySeries = errors.New("empty series")
	// ErrInvalidKey is returned when a product name has no usable characters
	ErrInvalidKey = errors.New("product name yields an empty key")
)

// SummaryRow is the latest state of one product
type SummaryRow struct {
	Name    string
	Key     string
	Latest  Observation
	Metrics DerivedMetrics
}

// Summarize projects the last record of the series
func Summarize(s Series) (SummaryRow, error) {
	last, ok := s.Last()
	if !ok {
		return SummaryRow{}, fmt.Errorf("summarize %q: %w", s.Key, ErrEmptySeries)
	}

	name := s.Name
	if name == "" {
		name = last.ProductName
	}

	return SummaryRow{
		Name:    name,
		Key:     s.Key,
		Latest:  last.Observation,
		Metrics: last.Metrics,
	}, nil
}

// SafeKey reduces a product name to letters, digits, spaces and
// underscores, trimming trailing spaces.
func SafeKey(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}

	key := strings.TrimRight(b.String(), " ")
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidKey)
	}
	return key, nil
}

// RollingMean returns the trailing mean of market price over window records.
// Records whose price does not normalize are skipped in the average; a
// position with no valid price in its window reports ok=false.
func RollingMean(s Series, window int) []RollingPoint {
	if window < 1 {
		window = 1
	}

	points := make([]RollingPoint, len(s.Records))
	for i := range s.Records {
		start := i - window + 1
		if start < 0 {
			start = 0
		}

		var sum float64
		var n int
		for _, r := range s.Records[start : i+1] {
			price := ToNumber(r.MarketPrice, KindPrice)
			if price.Valid() {
				sum += price.Float64()
				n++
			}
		}

		points[i].Date = s.Records[i].Date
		if n > 0 {
			points[i].Value = sum / float64(n)
			points[i].OK = true
		}
	}
	return points
}
