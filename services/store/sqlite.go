package store

import (
	"context"
	"database/sql"
	"fmt"

	"sjsage522/pricetracker/internal/market"
	"sjsage522/pricetracker/logger"

	_ "modernc.org/sqlite"
)

// sqlColumns maps persisted columns to table columns, in storage order
var sqlColumns = map[string]string{
	market.ColumnDate:           "date",
	market.ColumnMarketPrice:    "market_price",
	market.ColumnMostRecentSale: "most_recent_sale",
	market.ColumnListedMedian:   "listed_median",
	market.ColumnCurrentQty:     "current_quantity",
	market.ColumnCurrentSellers: "current_sellers",
	market.ColumnTotalSold:      "total_sold",
	market.ColumnPriceChange:    "price_change",
	market.ColumnQuantityChange: "quantity_change",
	market.ColumnDailySales:     "daily_sales",
}

const createObservations = `CREATE TABLE IF NOT EXISTS observations (
	product_key TEXT NOT NULL,
	seq INTEGER NOT NULL,
	product_name TEXT NOT NULL,
	date TEXT NOT NULL,
	market_price TEXT NOT NULL,
	most_recent_sale TEXT NOT NULL,
	listed_median TEXT NOT NULL,
	current_quantity TEXT NOT NULL,
	current_sellers TEXT NOT NULL,
	total_sold TEXT NOT NULL,
	price_change TEXT NOT NULL,
	quantity_change TEXT NOT NULL,
	daily_sales TEXT NOT NULL,
	PRIMARY KEY (product_key, seq)
)`

// SQLiteStore keeps every series in one observations table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One connection serialises writers on the file
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createObservations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create observations table: %w", err)
	}

	logger.ForStore().Info().Str("path", path).Msg("SQLite store opened")
	return &SQLiteStore{db: db}, nil
}

func orderedSQLColumns() []string {
	columns := make([]string, len(market.Columns))
	for i, column := range market.Columns {
		columns[i] = sqlColumns[column]
	}
	return columns
}

// Load reads the series stored under key in insertion order
func (s *SQLiteStore) Load(ctx context.Context, key string) (market.Series, error) {
	series := market.Series{Key: key}

	query := "SELECT product_name"
	for _, column := range orderedSQLColumns() {
		query += ", " + column
	}
	query += " FROM observations WHERE product_key = ? ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return series, fmt.Errorf("failed to query %s: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		values := make([]string, len(market.Columns))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &name)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return series, fmt.Errorf("failed to scan %s: %w", key, err)
		}

		row := make(Row, len(values))
		for i, column := range market.Columns {
			row[column] = values[i]
		}
		record, err := DecodeRecord(row, name)
		if err != nil {
			return series, fmt.Errorf("%s seq %d: %w", key, series.Len(), err)
		}
		series.Append(record)
	}

	return series, rows.Err()
}

// Append inserts record after the last stored record of key
func (s *SQLiteStore) Append(ctx context.Context, key string, record market.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq) + 1, 0) FROM observations WHERE product_key = ?", key).Scan(&seq); err != nil {
		return fmt.Errorf("failed to read sequence of %s: %w", key, err)
	}

	columns := orderedSQLColumns()
	query := "INSERT INTO observations (product_key, seq, product_name"
	placeholders := "?, ?, ?"
	for _, column := range columns {
		query += ", " + column
		placeholders += ", ?"
	}
	query += ") VALUES (" + placeholders + ")"

	args := []any{key, seq, record.ProductName}
	for _, value := range EncodeRecord(record).Values() {
		args = append(args, value)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", key, err)
	}
	return tx.Commit()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
