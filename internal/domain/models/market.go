package models

import "time"

// Tick is a single trade print from the exchange stream.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// Candle represents an OHLCV record used for pair analysis.
type Candle struct {
	Bucket time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is one observation in a price series.
type PricePoint struct {
	Timestamp time.Time
	Close     float64
	Volume    float64
}

// PriceSeries is an ordered close/volume history for one symbol over a
// lookback window. Immutable once fetched for an analysis cycle.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// UniverseAsset is one instrument from the liquid-asset universe snapshot.
type UniverseAsset struct {
	Symbol      string
	Sector      string
	QuoteVolume float64
	LastPrice   float64
}
