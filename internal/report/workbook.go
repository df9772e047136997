package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sjsage522/pricetracker/internal/market"
	"sjsage522/pricetracker/logger"

	"github.com/xuri/excelize/v2"
)

// ErrNoProducts is returned when there is nothing to report
var ErrNoProducts = errors.New("no products to report")

const (
	summarySheet   = "Summary"
	maxSheetName   = 31
	maxNameDisplay = 55
	rollingWindow  = 7
	rollingColumn  = "7-Day Avg"
	gainColor      = "228B22"
	lossColor      = "DC143C"
)

var summaryHeader = []string{"Product", "Market Price", "Change", "Quantity", "Qty Chg", "Daily Sales"}

// WorkbookRenderer writes an .xlsx report with a summary sheet and one
// history sheet per product
type WorkbookRenderer struct {
	Dir string
	Now func() time.Time
}

// NewWorkbookRenderer creates a renderer writing into dir
func NewWorkbookRenderer(dir string) *WorkbookRenderer {
	return &WorkbookRenderer{
		Dir: dir,
		Now: time.Now,
	}
}

type styles struct {
	header int
	gain   int
	loss   int
}

// Render implements Renderer
func (r *WorkbookRenderer) Render(ctx context.Context, products []ProductReport) (string, error) {
	if len(products) == 0 {
		return "", ErrNoProducts
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	generated := now()

	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return "", err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if err := writeSummary(f, st, products, generated); err != nil {
		return "", fmt.Errorf("failed to write summary sheet: %w", err)
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		sheet := sheetName(product, used)
		if err := writeHistory(f, st, sheet, product); err != nil {
			return "", fmt.Errorf("failed to write sheet %q: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(r.Dir, "market_report_"+generated.Format("20060102_150405")+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	logger.ForReport().Info().Str("path", path).Int("products", len(products)).Msg("Report generated")
	return path, nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}); err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}
	if st.gain, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: gainColor},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return st, fmt.Errorf("failed to create gain style: %w", err)
	}
	if st.loss, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: lossColor},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return st, fmt.Errorf("failed to create loss style: %w", err)
	}
	return st, nil
}

func writeSummary(f *excelize.File, st styles, products []ProductReport, generated time.Time) error {
	if err := f.SetCellValue(summarySheet, "A1", "Daily Report Summary"); err != nil {
		return err
	}
	if err := f.SetCellValue(summarySheet, "A2", "Generated on: "+generated.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}

	header := make([]interface{}, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(summarySheet, "A4", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A4", "F4", st.header); err != nil {
		return err
	}

	for i, product := range products {
		row := 5 + i
		summary := product.Summary
		values := []interface{}{
			Truncate(summary.Name, maxNameDisplay),
			summary.Latest.MarketPrice.String(),
			FormatPriceChange(summary.Metrics.PriceChange),
			summary.Latest.CurrentQty.String(),
			FormatCountChange(summary.Metrics.QuantityChange),
			strconv.FormatInt(summary.Metrics.PeriodSales, 10),
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}

		if err := colorChange(f, st, summarySheet, 3, row, signOf(summary.Metrics.PriceChange)); err != nil {
			return err
		}
		if err := colorChange(f, st, summarySheet, 5, row, summary.Metrics.QuantityChange); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 60); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "F", 14)
}

func signOf(v float64) int64 {
	cents := math.Round(v * 100)
	switch {
	case cents > 0:
		return 1
	case cents < 0:
		return -1
	}
	return 0
}

func colorChange(f *excelize.File, st styles, sheet string, col, row int, sign int64) error {
	if sign == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	style := st.gain
	if sign < 0 {
		style = st.loss
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func writeHistory(f *excelize.File, st styles, sheet string, product ProductReport) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, 0, len(market.Columns)+1)
	for _, column := range market.Columns {
		header = append(header, column)
	}
	header = append(header, rollingColumn)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}

	rolling := market.RollingMean(product.Series, rollingWindow)
	for i, record := range product.Series.Records {
		values := historyRow(record, rolling[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "K", 16); err != nil {
		return err
	}

	n := product.Series.Len()
	if n == 0 {
		return nil
	}
	return f.AddChart(sheet, "M2", historyChart(sheet, product.Summary.Name, n))
}

// historyRow writes prices and counts as numbers where they normalize so
// the chart can plot them
func historyRow(record market.Record, avg market.RollingPoint) []interface{} {
	values := []interface{}{record.DateString()}
	for _, column := range market.FieldColumns {
		field := record.FieldRef(column)
		kind := market.KindCount
		if column == market.ColumnMarketPrice || column == market.ColumnMostRecentSale || column == market.ColumnListedMedian {
			kind = market.KindPrice
		}
		if n := market.ToNumber(*field, kind); n.Valid() {
			values = append(values, n.Float64())
		} else {
			values = append(values, field.String())
		}
	}
	values = append(values, record.Metrics.PriceChange, record.Metrics.QuantityChange, record.Metrics.PeriodSales)
	if avg.OK {
		values = append(values, avg.Value)
	} else {
		values = append(values, market.UnknownText)
	}
	return values
}

func historyChart(sheet, name string, n int) *excelize.Chart {
	ref := "'" + strings.ReplaceAll(sheet, "'", "''") + "'!"
	categories := fmt.Sprintf("%s$A$2:$A$%d", ref, n+1)

	return &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       ref + "$B$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s$B$2:$B$%d", ref, n+1),
			},
			{
				Name:       ref + "$K$1",
				Categories: categories,
				Values:     fmt.Sprintf("%s$K$2:$K$%d", ref, n+1),
			},
		},
		Title: []excelize.RichTextRun{
			{Text: "Detailed History for " + name},
		},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
}

// sheetName derives a unique sheet name from the product key
func sheetName(product ProductReport, used map[string]bool) string {
	base := product.Series.Key
	if base == "" {
		base = product.Summary.Key
	}
	if base == "" {
		base, _ = market.SafeKey(product.Summary.Name)
	}
	if base == "" {
		base = "Product"
	}
	base = strings.TrimSpace(Truncate(base, maxSheetName))

	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = strings.TrimSpace(Truncate(base, maxSheetName-len(suffix))) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}
