package market

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observation(price, qty, sold string) Observation {
	return Observation{
		ProductName: "Test Booster Box",
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		MarketPrice: Known(price),
		CurrentQty:  Known(qty),
		TotalSold:   Known(sold),
	}
}

func TestKnownCollapsesEmptyAndNA(t *testing.T) {
	assert.False(t, Known("").IsKnown())
	assert.False(t, Known("   ").IsKnown())
	assert.False(t, Known("N/A").IsKnown())
	assert.Equal(t, "N/A", Unknown().String())

	f := Known("  $12.50 ")
	text, ok := f.Value()
	assert.True(t, ok)
	assert.Equal(t, "$12.50", text)
}

func TestToNumberStripsSymbols(t *testing.T) {
	testCases := []struct {
		raw   string
		plain string
		kind  Kind
	}{
		{"$12,345.67", "12345.67", KindPrice},
		{"$0.99", "0.99", KindPrice},
		{"1,024", "1024", KindCount},
		{"$1,000,000", "1000000", KindCount},
		{" 45 ", "45", KindCount},
	}

	for _, tc := range testCases {
		withSymbols := ToNumber(Known(tc.raw), tc.kind)
		direct := ParseNumber(tc.plain, tc.kind)
		require.True(t, withSymbols.Valid(), tc.raw)
		require.True(t, direct.Valid(), tc.plain)
		assert.True(t, withSymbols.Decimal().Equal(direct.Decimal()), tc.raw)
	}
}

func TestToNumberNotANumber(t *testing.T) {
	inputs := []Field{
		Unknown(),
		Known(""),
		Known("N/A"),
		Known("$"),
		Known("abc"),
		Known("-"),
		Known("$-5.00"),
	}
	for _, f := range inputs {
		assert.False(t, ToNumber(f, KindPrice).Valid(), f.String())
		assert.False(t, ToNumber(f, KindCount).Valid(), f.String())
	}

	assert.False(t, ToNumber(Known("12.5"), KindCount).Valid())
	assert.True(t, ToNumber(Known("12.00"), KindCount).Valid())
	assert.Equal(t, int64(12), ToNumber(Known("12.00"), KindCount).Int64())
	assert.Equal(t, 0.0, NotANumber().Float64())
}

func TestReconcileEmptyTail(t *testing.T) {
	obs := observation("$99.99", "10", "500")
	got, metrics := Reconcile(nil, obs)

	assert.Equal(t, obs, got)
	assert.Equal(t, DerivedMetrics{}, metrics)
}

func TestReconcileDeltas(t *testing.T) {
	prev := Record{Observation: observation("$10.00", "50", "100")}
	_, metrics := Reconcile([]Record{prev}, observation("$12.50", "45", "130"))

	assert.Equal(t, 2.5, metrics.PriceChange)
	assert.Equal(t, int64(-5), metrics.QuantityChange)
	assert.Equal(t, int64(30), metrics.PeriodSales)
}

func TestReconcileDecimalPrecision(t *testing.T) {
	prev := Record{Observation: observation("$10.10", "1", "1")}
	_, metrics := Reconcile([]Record{prev}, observation("$12.30", "1", "1"))

	assert.Equal(t, 2.2, metrics.PriceChange)
}

func TestReconcileNonMonotonicCounter(t *testing.T) {
	prev := Record{Observation: observation("$10.00", "50", "100")}
	_, metrics := Reconcile([]Record{prev}, observation("$10.00", "50", "80"))

	assert.Equal(t, int64(0), metrics.PeriodSales)
	assert.Equal(t, 0.0, metrics.PriceChange)
	assert.Equal(t, int64(0), metrics.QuantityChange)
}

func TestReconcileUnknownSideYieldsZero(t *testing.T) {
	prev := Record{Observation: Observation{
		MarketPrice: Unknown(),
		CurrentQty:  Known("garbage"),
		TotalSold:   Unknown(),
	}}
	_, metrics := Reconcile([]Record{prev}, observation("$12.50", "45", "130"))
	assert.Equal(t, DerivedMetrics{}, metrics)

	prev = Record{Observation: observation("$12.50", "45", "130")}
	_, metrics = Reconcile([]Record{prev}, Observation{})
	assert.Equal(t, DerivedMetrics{}, metrics)
}

func TestReconcileComparesOnlyImmediatePredecessor(t *testing.T) {
	tail := []Record{
		{Observation: observation("$1.00", "1", "1")},
		{Observation: observation("$5.00", "10", "50")},
	}
	_, metrics := Reconcile(tail, observation("$6.00", "12", "55"))

	assert.Equal(t, 1.0, metrics.PriceChange)
	assert.Equal(t, int64(2), metrics.QuantityChange)
	assert.Equal(t, int64(5), metrics.PeriodSales)
}

func TestSeriesAppendObservation(t *testing.T) {
	var s Series
	first := s.AppendObservation(observation("$10.00", "50", "100"))
	second := s.AppendObservation(observation("$10.00", "50", "100"))

	assert.Equal(t, DerivedMetrics{}, first.Metrics)
	assert.Equal(t, DerivedMetrics{}, second.Metrics)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "Test Booster Box", s.Name)
}

func TestSummarize(t *testing.T) {
	_, err := Summarize(Series{Key: "empty"})
	assert.True(t, errors.Is(err, ErrEmptySeries))

	s := Series{Key: "Test Booster Box"}
	s.AppendObservation(observation("$10.00", "50", "100"))
	s.AppendObservation(observation("$12.50", "45", "130"))

	row, err := Summarize(s)
	require.NoError(t, err)
	assert.Equal(t, "Test Booster Box", row.Name)
	assert.Equal(t, "Test Booster Box", row.Key)
	assert.Equal(t, "$12.50", row.Latest.MarketPrice.String())
	assert.Equal(t, int64(30), row.Metrics.PeriodSales)
	assert.Equal(t, 2, s.Len())
}

func TestSafeKey(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"Pokemon: Scarlet & Violet - Booster Box", "Pokemon Scarlet  Violet  Booster Box"},
		{"Elite_Trainer Box (151)", "Elite_Trainer Box 151"},
		{"Trailing !!", "Trailing"},
	}
	for _, tc := range testCases {
		key, err := SafeKey(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, key)
	}

	_, err := SafeKey("?!/")
	assert.True(t, errors.Is(err, ErrInvalidKey))
}

func TestRollingMean(t *testing.T) {
	var s Series
	for _, p := range []string{"$10.00", "N/A", "$20.00", "$30.00"} {
		s.AppendObservation(Observation{MarketPrice: Known(p)})
	}

	points := RollingMean(s, 2)
	require.Len(t, points, 4)
	assert.True(t, points[0].OK)
	assert.Equal(t, 10.0, points[0].Value)
	assert.True(t, points[1].OK)
	assert.Equal(t, 10.0, points[1].Value)
	assert.Equal(t, 20.0, points[2].Value)
	assert.Equal(t, 25.0, points[3].Value)

	var unknowns Series
	unknowns.AppendObservation(Observation{})
	assert.False(t, RollingMean(unknowns, 7)[0].OK)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	d := Day(time.Date(2024, 5, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-05-01", d.Format(DateLayout))
	assert.Equal(t, time.UTC, d.Location())

	parsed, err := ParseDay("2024-05-01")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(d))
}
