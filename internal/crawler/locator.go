package crawler

import (
	"strings"

	"sjsage522/pricetracker/internal/market"

	"github.com/PuerkitoBio/goquery"
)

// Strategy locates a value under root
type Strategy func(root *goquery.Selection) market.Field

// Locate finds the value described by q under root. A missing label or a
// missing structural relative yields Unknown.
func Locate(root *goquery.Selection, q Query) market.Field {
	if root == nil || root.Length() == 0 || q.Label == "" {
		return market.Unknown()
	}

	label := findLabel(root, q)
	if label.Length() == 0 {
		return market.Unknown()
	}

	switch q.Mode {
	case ModeRowPrice:
		row := label.Closest("tr")
		return textOf(row.Find(q.ValueSelector).First())
	case ModeSiblingCell:
		cell := label.Closest("td")
		next := cell.NextAllFiltered("td").First()
		return textOf(next.Find(q.ValueSelector).First())
	case ModeRowPair:
		if q.Index < 0 {
			return market.Unknown()
		}
		values := label.Closest("tr").Find(q.ValueSelector)
		if values.Length() <= q.Index {
			return market.Unknown()
		}
		return textOf(values.Eq(q.Index))
	}

	return market.Unknown()
}

// Strategy returns q as a Strategy
func (q Query) Strategy() Strategy {
	return func(root *goquery.Selection) market.Field {
		return Locate(root, q)
	}
}

// FirstOf applies strategies in order and returns the first known value
func FirstOf(root *goquery.Selection, strategies ...Strategy) market.Field {
	for _, strategy := range strategies {
		if strategy == nil {
			continue
		}
		if field := strategy(root); field.IsKnown() {
			return field
		}
	}
	return market.Unknown()
}

// LocateField scopes the search to the field's section and tries its queries
func LocateField(root *goquery.Selection, spec FieldSpec) market.Field {
	if root == nil {
		return market.Unknown()
	}

	scope := root
	if spec.Section != "" {
		scope = root.Find(spec.Section).First()
	}

	strategies := make([]Strategy, 0, len(spec.Queries))
	for _, q := range spec.Queries {
		strategies = append(strategies, q.Strategy())
	}
	return FirstOf(scope, strategies...)
}

func findLabel(root *goquery.Selection, q Query) *goquery.Selection {
	selector := q.LabelSelector
	if selector == "" {
		selector = "span"
	}

	return root.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.TrimSpace(s.Text()), q.Label)
	}).First()
}

func textOf(s *goquery.Selection) market.Field {
	if s == nil || s.Length() == 0 {
		return market.Unknown()
	}
	return market.Known(s.Text())
}
