package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sjsage522/pricetracker/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testName = "Scarlet & Violet Booster Box"

func observation(day int, price, qty, sold string) market.Observation {
	return market.Observation{
		ProductName:    testName,
		Date:           time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		MarketPrice:    market.Known(price),
		MostRecentSale: market.Known("$101.00"),
		ListedMedian:   market.Unknown(),
		CurrentQty:     market.Known(qty),
		CurrentSellers: market.Known("12"),
		TotalSold:      market.Known(sold),
	}
}

// buildSeries reconciles a few observations the way the worker does
func buildSeries() market.Series {
	series := market.Series{}
	series.AppendObservation(observation(1, "$10.10", "50", "100"))
	series.AppendObservation(observation(2, "$12.30", "45", "130"))
	series.AppendObservation(observation(2, "$1,012.35", "N/A", "80"))
	series.AppendObservation(observation(3, "", "60", "95"))
	return series
}

func testStoreRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	key, err := market.SafeKey(testName)
	require.NoError(t, err)

	empty, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, key, empty.Key)

	want := buildSeries()
	for _, record := range want.Records {
		require.NoError(t, s.Append(ctx, key, record))
	}

	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, got.Key)
	assert.Equal(t, testName, got.Name)
	require.Equal(t, want.Len(), got.Len())
	for i := range want.Records {
		assert.Equal(t, want.Records[i], got.Records[i], "record %d", i)
	}

	// Stored metrics are read back, not recomputed
	assert.Equal(t, 2.2, got.Records[1].Metrics.PriceChange)
	assert.Equal(t, int64(-5), got.Records[1].Metrics.QuantityChange)
	assert.Equal(t, int64(30), got.Records[1].Metrics.PeriodSales)
	assert.Equal(t, int64(0), got.Records[2].Metrics.PeriodSales)
	assert.False(t, got.Records[2].CurrentQty.IsKnown())
	assert.False(t, got.Records[3].MarketPrice.IsKnown())

	other, err := s.Load(ctx, "Other Product")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}

func TestCSVStoreRoundTrip(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	defer s.Close()

	testStoreRoundTrip(t, s)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "observations.db"))
	require.NoError(t, err)
	defer s.Close()

	testStoreRoundTrip(t, s)
}

func TestCSVStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir)
	require.NoError(t, err)

	series := buildSeries()
	require.NoError(t, s.Append(context.Background(), "Booster Box", series.Records[0]))
	require.NoError(t, s.Append(context.Background(), "Booster Box", series.Records[1]))

	data, err := os.ReadFile(s.Path("Booster Box"))
	require.NoError(t, err)

	want := "# product: " + testName + "\n" +
		"Date,Market Price,Most Recent Sale,Listed Median,Current Quantity,Current Sellers,Total Sold,Price Change,Quantity Change,Daily Sales\n" +
		"2024-03-01,$10.10,$101.00,N/A,50,12,100,0,0,0\n" +
		"2024-03-02,$12.30,$101.00,N/A,45,12,130,2.2,-5,30\n"
	assert.Equal(t, want, string(data))

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVStoreToleratesMissingColumns(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStore(dir)
	require.NoError(t, err)

	legacy := "Date,Market Price,Current Quantity\n2024-01-05,\"$1,234.00\",17\n"
	require.NoError(t, os.WriteFile(s.Path("Legacy"), []byte(legacy), 0o644))

	series, err := s.Load(context.Background(), "Legacy")
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())

	record := series.Records[0]
	assert.Equal(t, "", series.Name)
	assert.Equal(t, "2024-01-05", record.DateString())
	assert.Equal(t, "$1,234.00", record.MarketPrice.String())
	assert.Equal(t, "17", record.CurrentQty.String())
	assert.False(t, record.TotalSold.IsKnown())
	assert.Equal(t, market.DerivedMetrics{}, record.Metrics)
}

func TestCSVStoreRejectsBadDate(t *testing.T) {
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path("Broken"), []byte("Date,Market Price\nyesterday,$1.00\n"), 0o644))

	_, err = s.Load(context.Background(), "Broken")
	assert.Error(t, err)
}

func TestDecodeRecordMetrics(t *testing.T) {
	row := Row{
		market.ColumnDate:           "2024-03-02",
		market.ColumnPriceChange:    "-1.5",
		market.ColumnQuantityChange: "5.0",
		market.ColumnDailySales:     "3",
	}
	record, err := DecodeRecord(row, testName)
	require.NoError(t, err)
	assert.Equal(t, -1.5, record.Metrics.PriceChange)
	assert.Equal(t, int64(5), record.Metrics.QuantityChange)
	assert.Equal(t, int64(3), record.Metrics.PeriodSales)
	assert.Equal(t, testName, record.ProductName)

	row[market.ColumnDailySales] = "2.5"
	_, err = DecodeRecord(row, testName)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Backend: BackendCSV, DataDir: filepath.Join(dir, "csv")})
	require.NoError(t, err)
	_, ok := s.(FileStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Backend: BackendSQLite, DataDir: filepath.Join(dir, "sqlite")})
	require.NoError(t, err)
	_, ok = s.(FileStore)
	assert.False(t, ok)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "excel"})
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
