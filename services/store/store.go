package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sjsage522/pricetracker/internal/market"
)

// Store persists product series. It assumes a single writer per key.
type Store interface {
	// Load returns the series stored under key; a missing key is an empty series
	Load(ctx context.Context, key string) (market.Series, error)

	// Append adds one record to the end of the series stored under key
	Append(ctx context.Context, key string, record market.Record) error

	// Close releases the store's resources
	Close() error
}

// Storage backends
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Options selects and configures a storage backend
type Options struct {
	Backend     string
	DataDir     string
	SQLitePath  string
	PostgresDSN string
	Debug       bool
}

// Open creates the store selected by opts
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendCSV, "":
		return NewCSVStore(opts.DataDir)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "observations.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		return NewSQLiteStore(ctx, path)
	case BackendPostgres:
		return NewGormStore(opts.PostgresDSN, opts.Debug)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// FileStore is implemented by stores that keep one file per series
type FileStore interface {
	Path(key string) string
}

// Row is one record in column form, keyed by the persisted column names
type Row map[string]string

// EncodeRecord converts a record into its persisted columns
func EncodeRecord(r market.Record) Row {
	row := Row{
		market.ColumnDate:           r.DateString(),
		market.ColumnPriceChange:    strconv.FormatFloat(r.Metrics.PriceChange, 'f', -1, 64),
		market.ColumnQuantityChange: strconv.FormatInt(r.Metrics.QuantityChange, 10),
		market.ColumnDailySales:     strconv.FormatInt(r.Metrics.PeriodSales, 10),
	}
	for _, column := range market.FieldColumns {
		row[column] = r.FieldRef(column).String()
	}
	return row
}

// Values returns the row's values in column order
func (r Row) Values() []string {
	values := make([]string, len(market.Columns))
	for i, column := range market.Columns {
		values[i] = r[column]
	}
	return values
}

// DecodeRecord rebuilds a record from its persisted columns. Missing
// field columns read as Unknown and missing metric columns as zero.
func DecodeRecord(row Row, name string) (market.Record, error) {
	record := market.Record{}
	record.ProductName = name

	date, err := market.ParseDay(row[market.ColumnDate])
	if err != nil {
		return market.Record{}, fmt.Errorf("invalid date %q: %w", row[market.ColumnDate], err)
	}
	record.Date = date

	for _, column := range market.FieldColumns {
		*record.FieldRef(column) = market.Known(row[column])
	}

	if v := strings.TrimSpace(row[market.ColumnPriceChange]); v != "" {
		if record.Metrics.PriceChange, err = strconv.ParseFloat(v, 64); err != nil {
			return market.Record{}, fmt.Errorf("invalid %s %q: %w", market.ColumnPriceChange, v, err)
		}
	}
	if v := strings.TrimSpace(row[market.ColumnQuantityChange]); v != "" {
		if record.Metrics.QuantityChange, err = parseInt(v); err != nil {
			return market.Record{}, fmt.Errorf("invalid %s %q: %w", market.ColumnQuantityChange, v, err)
		}
	}
	if v := strings.TrimSpace(row[market.ColumnDailySales]); v != "" {
		if record.Metrics.PeriodSales, err = parseInt(v); err != nil {
			return market.Record{}, fmt.Errorf("invalid %s %q: %w", market.ColumnDailySales, v, err)
		}
	}

	return record, nil
}

// parseInt also accepts integral floats such as "5.0" written by spreadsheets
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}
