package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"PairScout/internal/domain/models"
	"PairScout/pkg/logger"
)

func testLogger() *logger.Logger {
	l, _ := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	return l
}

// memStateStore is an in-memory StateStore for tests.
type memStateStore struct {
	mu         sync.Mutex
	watchlist  map[string]*models.WatchlistEntry
	trades     map[string]*models.ActiveTrade
	exclusions map[string]bool
	sched      *models.SchedulerState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{
		watchlist:  make(map[string]*models.WatchlistEntry),
		trades:     make(map[string]*models.ActiveTrade),
		exclusions: make(map[string]bool),
	}
}

func (m *memStateStore) UpsertWatchlistEntry(_ context.Context, e *models.WatchlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.watchlist[e.PairKey] = &cp
	return nil
}

func (m *memStateStore) GetWatchlistEntry(_ context.Context, pairKey string) (*models.WatchlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.watchlist[pairKey]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memStateStore) ListWatchlist(_ context.Context) ([]*models.WatchlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.WatchlistEntry, 0, len(m.watchlist))
	for _, e := range m.watchlist {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStateStore) DeleteWatchlistEntry(_ context.Context, pairKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watchlist, pairKey)
	return nil
}

func (m *memStateStore) UpsertActiveTrade(_ context.Context, t *models.ActiveTrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trades[t.TradeKey] = &cp
	return nil
}

func (m *memStateStore) GetActiveTrade(_ context.Context, tradeKey string) (*models.ActiveTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[tradeKey]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStateStore) ListActiveTrades(_ context.Context) ([]*models.ActiveTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ActiveTrade, 0, len(m.trades))
	for _, t := range m.trades {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStateStore) DeleteActiveTrade(_ context.Context, tradeKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trades, tradeKey)
	return nil
}

func (m *memStateStore) AddExclusion(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exclusions[symbol] = true
	return nil
}

func (m *memStateStore) RemoveExclusion(_ context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exclusions, symbol)
	return nil
}

func (m *memStateStore) ListExclusions(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.exclusions))
	for s := range m.exclusions {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStateStore) GetSchedulerState(_ context.Context) (*models.SchedulerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sched == nil {
		return nil, nil
	}
	cp := *m.sched
	return &cp, nil
}

func (m *memStateStore) SaveSchedulerState(_ context.Context, s *models.SchedulerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sched = &cp
	return nil
}

// memHistoryStore is an in-memory HistoryStore for tests.
type memHistoryStore struct {
	mu      sync.Mutex
	records []*models.HistoryRecord
}

func (m *memHistoryStore) Append(_ context.Context, r *models.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.records = append(m.records, &cp)
	return nil
}

func (m *memHistoryStore) List(_ context.Context, pairKey string, limit int) ([]*models.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.HistoryRecord, 0, len(m.records))
	for _, r := range m.records {
		if pairKey != "" && r.PairKey != pairKey {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memHistoryStore) Stats(_ context.Context) (*models.TradeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &models.TradeStats{TotalTrades: len(m.records)}
	for _, r := range m.records {
		st.TotalPnLPct += r.PnLPct
		if r.PnLPct > 0 {
			st.Wins++
		} else {
			st.Losses++
		}
	}
	if st.TotalTrades > 0 {
		st.AvgPnLPct = st.TotalPnLPct / float64(st.TotalTrades)
		st.WinRate = float64(st.Wins) / float64(st.TotalTrades)
	}
	return st, nil
}

// nopMetrics discards every recording.
type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)    {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordLastPrice(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64)       {}
func (nopMetrics) RecordCycleDuration(string, float64) {}
func (nopMetrics) RecordPairsScanned(int)              {}
func (nopMetrics) RecordGateFailure(string)            {}
func (nopMetrics) RecordTradesOpen(int)                {}
func (nopMetrics) RecordExit(string)                   {}

// fakeMarket serves deterministic daily candles: for each symbol a smooth
// trending series with a per-symbol scale, so any two symbols align on every
// bucket and correlate strongly.
type fakeMarket struct {
	universe []models.UniverseAsset
	scale    map[string]float64
}

func newFakeMarket(universe []models.UniverseAsset) *fakeMarket {
	scale := make(map[string]float64)
	for i, a := range universe {
		scale[a.Symbol] = 1 + float64(i)
	}
	return &fakeMarket{universe: universe, scale: scale}
}

func (f *fakeMarket) GetUniverse(context.Context) ([]models.UniverseAsset, error) {
	return f.universe, nil
}

func (f *fakeMarket) GetCandles(_ context.Context, symbol, _ string, from, to time.Time) ([]models.Candle, error) {
	k, ok := f.scale[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", symbol)
	}
	day := from.Truncate(24 * time.Hour)
	var out []models.Candle
	for i := 0; day.Before(to); i++ {
		price := k * (100 + 0.4*float64(i) + 2*math.Sin(float64(i)/3))
		out = append(out, models.Candle{
			Bucket: day,
			Symbol: symbol,
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		})
		day = day.Add(24 * time.Hour)
	}
	return out, nil
}

// captureNotifier records every pushed message.
type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

// captureEvents records published trade lifecycle events.
type captureEvents struct {
	mu     sync.Mutex
	events []models.TradeEvent
}

func (c *captureEvents) PublishTradeEvent(_ context.Context, ev *models.TradeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, *ev)
	return nil
}
