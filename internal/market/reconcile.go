package market

// Reconcile computes the metrics for obs against the last entry of tail.
// Only the immediately preceding record is consulted. A value that does not
// normalize on either side contributes 0, and a decreasing total sold
// counter yields no period sales.
func Reconcile(tail []Record, obs Observation) (Observation, DerivedMetrics) {
	var metrics DerivedMetrics
	if len(tail) == 0 {
		return obs, metrics
	}
	prev := tail[len(tail)-1]

	newPrice := ToNumber(obs.MarketPrice, KindPrice)
	lastPrice := ToNumber(prev.MarketPrice, KindPrice)
	if newPrice.Valid() && lastPrice.Valid() {
		metrics.PriceChange = newPrice.Decimal().Sub(lastPrice.Decimal()).InexactFloat64()
	}

	newQty := ToNumber(obs.CurrentQty, KindCount)
	lastQty := ToNumber(prev.CurrentQty, KindCount)
	if newQty.Valid() && lastQty.Valid() {
		metrics.QuantityChange = newQty.Int64() - lastQty.Int64()
	}

	newSold := ToNumber(obs.TotalSold, KindCount)
	lastSold := ToNumber(prev.TotalSold, KindCount)
	if newSold.Valid() && lastSold.Valid() && newSold.Int64() >= lastSold.Int64() {
		metrics.PeriodSales = newSold.Int64() - lastSold.Int64()
	}

	return obs, metrics
}

// AppendObservation reconciles obs against the series tail and appends the
// resulting record, returning it.
func (s *Series) AppendObservation(obs Observation) Record {
	obs, metrics := Reconcile(s.Records, obs)
	record := Record{Observation: obs, Metrics: metrics}
	s.Append(record)
	return record
}
