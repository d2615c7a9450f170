package features

import (
	"math"
	"testing"
	"time"

	"PairScout/internal/domain/models"
)

func candleAt(day int, close float64) models.Candle {
	return models.Candle{
		Bucket: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Close:  close,
	}
}

func TestAlignCandlesIntersectsBuckets(t *testing.T) {
	c1 := []models.Candle{candleAt(0, 10), candleAt(1, 11), candleAt(2, 12), candleAt(4, 14)}
	c2 := []models.Candle{candleAt(1, 21), candleAt(2, 22), candleAt(3, 23), candleAt(4, 24)}

	p1, p2 := AlignCandles(c1, c2)
	if len(p1) != 3 || len(p2) != 3 {
		t.Fatalf("aligned %d/%d points, want 3/3", len(p1), len(p2))
	}
	want1 := []float64{11, 12, 14}
	want2 := []float64{21, 22, 24}
	for i := range want1 {
		if p1[i] != want1[i] || p2[i] != want2[i] {
			t.Fatalf("point %d = (%v, %v), want (%v, %v)", i, p1[i], p2[i], want1[i], want2[i])
		}
	}
}

func TestAlignCandlesDropsBadPrints(t *testing.T) {
	c1 := []models.Candle{candleAt(0, 10), candleAt(1, 0), candleAt(2, 12)}
	c2 := []models.Candle{candleAt(0, 20), candleAt(1, 21), candleAt(2, -1)}

	p1, p2 := AlignCandles(c1, c2)
	if len(p1) != 1 || p1[0] != 10 || p2[0] != 20 {
		t.Fatalf("got %v / %v, want single clean point", p1, p2)
	}
}

func TestAlignCandlesEmptyInput(t *testing.T) {
	if p1, p2 := AlignCandles(nil, []models.Candle{candleAt(0, 10)}); p1 != nil || p2 != nil {
		t.Fatalf("expected nil slices for empty side")
	}
}

func TestComputeLogReturns(t *testing.T) {
	candles := []models.Candle{candleAt(0, 100), candleAt(1, 110), candleAt(2, 99)}
	rets := ComputeLogReturns(candles)
	if len(rets) != 2 {
		t.Fatalf("got %d returns, want 2", len(rets))
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("first return = %v", rets[0])
	}
	if ComputeLogReturns(candles[:1]) != nil {
		t.Fatalf("expected nil for a single candle")
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2026, 1, 5, 13, 42, 17, 0, time.UTC)
	to := time.Date(2026, 1, 9, 8, 3, 1, 0, time.UTC)

	af, at := AlignFromTo(from, to, "1h")
	if af.Minute() != 0 || at.Minute() != 0 {
		t.Fatalf("hourly alignment left minutes: %v %v", af, at)
	}
	af, at = AlignFromTo(from, to, "1d")
	if af.Hour() != 0 || at.Hour() != 0 {
		t.Fatalf("daily alignment left hours: %v %v", af, at)
	}
}
