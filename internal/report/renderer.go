package report

import (
	"context"

	"sjsage522/pricetracker/internal/market"
)

// ProductReport is one product's summary and full history
type ProductReport struct {
	Summary market.SummaryRow
	Series  market.Series
}

// Renderer turns the products of one run into a report file
type Renderer interface {
	// Render writes the report and returns its path
	Render(ctx context.Context, products []ProductReport) (string, error)
}

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
