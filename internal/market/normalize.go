package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kind selects how a display value is parsed
type Kind int

const (
	// KindPrice parses a decimal amount such as "$1,234.56"
	KindPrice Kind = iota
	// KindCount parses a whole count such as "1,024"
	KindCount
)

// Number is the result of normalizing a field. An invalid Number is NotANumber.
type Number struct {
	value decimal.Decimal
	valid bool
}

// NotANumber returns the invalid Number
func NotANumber() Number {
	return Number{}
}

// Valid reports whether the value parsed
func (n Number) Valid() bool {
	return n.valid
}

// Decimal returns the exact value, zero when invalid
func (n Number) Decimal() decimal.Decimal {
	if !n.valid {
		return decimal.Zero
	}
	return n.value
}

// Float64 returns the value as a float, zero when invalid
func (n Number) Float64() float64 {
	return n.Decimal().InexactFloat64()
}

// Int64 returns the value as an integer, zero when invalid
func (n Number) Int64() int64 {
	return n.Decimal().IntPart()
}

var stripper = strings.NewReplacer("$", "", ",", "")

// ToNumber strips currency symbols and thousands separators from the field
// and parses what remains. It never panics.
func ToNumber(f Field, kind Kind) Number {
	text, ok := f.Value()
	if !ok {
		return NotANumber()
	}
	return ParseNumber(text, kind)
}

// ParseNumber is ToNumber for raw display text
func ParseNumber(text string, kind Kind) Number {
	cleaned := strings.TrimSpace(stripper.Replace(text))
	if cleaned == "" {
		return NotANumber()
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return NotANumber()
	}
	if value.IsNegative() {
		return NotANumber()
	}
	if kind == KindCount && !value.IsInteger() {
		return NotANumber()
	}

	return Number{value: value, valid: true}
}
