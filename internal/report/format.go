package report

import (
	"fmt"
	"math"
	"strconv"
)

// FormatPriceChange renders a price delta as +$2.50, -$1.00 or $0.00
func FormatPriceChange(change float64) string {
	// Deltas that round to zero cents display as no change
	cents := math.Round(change * 100)
	switch {
	case cents > 0:
		return fmt.Sprintf("+$%.2f", cents/100)
	case cents < 0:
		return fmt.Sprintf("-$%.2f", math.Abs(cents)/100)
	}
	return "$0.00"
}

// FormatCountChange renders a count delta as +5, -5 or 0
func FormatCountChange(change int64) string {
	if change > 0 {
		return "+" + strconv.FormatInt(change, 10)
	}
	return strconv.FormatInt(change, 10)
}

// Truncate shortens s to at most n runes
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n < 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
