package models

import (
	"fmt"
	"time"
)

// PairKey builds the stable identifier for an unordered pair.
func PairKey(a1, a2 string) string {
	if a2 < a1 {
		a1, a2 = a2, a1
	}
	return fmt.Sprintf("%s-%s", a1, a2)
}

// Watchlist entry status.
const (
	WatchStatusCandidate = "candidate"
	WatchStatusActive    = "active"  // pair currently holds an open trade
	WatchStatusBlocked   = "blocked" // entry gates vetoed, kept for visibility
)

// WatchlistEntry is a persisted candidate pair produced by the scanner and
// consumed by the lifecycle entry gate.
type WatchlistEntry struct {
	PairKey string `json:"pair_key"`
	Asset1  string `json:"asset1"`
	Asset2  string `json:"asset2"`
	Sector  string `json:"sector"`

	Correlation    float64 `json:"correlation"`
	Beta           float64 `json:"beta"`
	ZScore         float64 `json:"z_score"`
	ZValid         bool    `json:"z_valid"`
	Cointegrated   bool    `json:"cointegrated"`
	HalfLifeDays   float64 `json:"half_life_days"`
	Hurst          float64 `json:"hurst"`
	EntryThreshold float64 `json:"entry_threshold"`
	Conviction     float64 `json:"conviction"`
	RankScore      float64 `json:"rank_score"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Trade direction over the spread.
const (
	DirLongSpread  = "long_spread"  // long asset1, short asset2 (negative z)
	DirShortSpread = "short_spread" // short asset1, long asset2 (positive z)
)

// Exit reasons, listed in evaluation priority order. The recorded reason for
// a close is always the earliest matching one.
const (
	ExitPartialTakeProfit = "partial_take_profit"
	ExitFinalTakeProfit   = "final_take_profit"
	ExitMeanReversion     = "mean_reversion"
	ExitStopLoss          = "stop_loss"
	ExitBetaDrift         = "beta_drift"
	ExitTimeStop          = "time_stop"
	ExitCorrelationBreak  = "correlation_breakdown"
	ExitHurstRegime       = "hurst_regime"
)

// ActiveTrade is an open pair position. Entry* fields are an immutable
// snapshot taken when the gate passed; Current* fields are refreshed every
// monitor cycle.
type ActiveTrade struct {
	TradeKey  string `json:"trade_key"`
	PairKey   string `json:"pair_key"`
	Asset1    string `json:"asset1"`
	Asset2    string `json:"asset2"`
	Sector    string `json:"sector"`
	Direction string `json:"direction"`

	EntryZ         float64   `json:"entry_z"`
	EntryBeta      float64   `json:"entry_beta"`
	EntryHalfLife  float64   `json:"entry_half_life"`
	EntryHurst     float64   `json:"entry_hurst"`
	EntryThreshold float64   `json:"entry_threshold"`
	MaxHistoricalZ float64   `json:"max_historical_z"`
	EntryPrice1    float64   `json:"entry_price1"`
	EntryPrice2    float64   `json:"entry_price2"`
	Weight1        float64   `json:"weight1"`
	Weight2        float64   `json:"weight2"`
	EntryAt        time.Time `json:"entry_at"`

	CurrentZ           float64   `json:"current_z"`
	CurrentZValid      bool      `json:"current_z_valid"`
	CurrentBeta        float64   `json:"current_beta"`
	CurrentCorrelation float64   `json:"current_correlation"`
	CurrentHurst       float64   `json:"current_hurst"`
	CurrentDrift       float64   `json:"current_drift"`
	MaxDriftSeen       float64   `json:"max_drift_seen"`
	Price1             float64   `json:"price1"`
	Price2             float64   `json:"price2"`
	PnLPct             float64   `json:"pnl_pct"`
	HealthScore        float64   `json:"health_score"`
	UpdatedAt          time.Time `json:"updated_at"`

	PartialExitTaken bool    `json:"partial_exit_taken"`
	OpenFraction     float64 `json:"open_fraction"` // 1.0 full, 0.5 after partial
}

// ExitAction is the decision produced by one exit evaluation.
type ExitAction struct {
	Reason        string  `json:"reason"`
	CloseFraction float64 `json:"close_fraction"` // fraction of the remaining position
	Full          bool    `json:"full"`
	Detail        string  `json:"detail"`
}

// HistoryRecord is the immutable, append-only record of a fully closed trade.
type HistoryRecord struct {
	TradeKey     string    `json:"trade_key"`
	PairKey      string    `json:"pair_key"`
	Asset1       string    `json:"asset1"`
	Asset2       string    `json:"asset2"`
	Direction    string    `json:"direction"`
	EntryAt      time.Time `json:"entry_at"`
	ExitAt       time.Time `json:"exit_at"`
	EntryZ       float64   `json:"entry_z"`
	ExitZ        float64   `json:"exit_z"`
	PnLPct       float64   `json:"pnl_pct"`
	ExitReason   string    `json:"exit_reason"`
	DurationDays float64   `json:"duration_days"`
}

// TradeStats aggregates closed-trade outcomes.
type TradeStats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TotalPnLPct float64 `json:"total_pnl_pct"`
	AvgPnLPct   float64 `json:"avg_pnl_pct"`
	WinRate     float64 `json:"win_rate"`
}

// SchedulerState is the small persisted record of job bookkeeping that
// survives process restarts.
type SchedulerState struct {
	LastScanAt     time.Time `json:"last_scan_at"`
	LastMonitorAt  time.Time `json:"last_monitor_at"`
	ScanEnabled    bool      `json:"scan_enabled"`
	MonitorEnabled bool      `json:"monitor_enabled"`
}

// CycleReport summarizes one scan or monitor run; per-pair failures are
// recorded here instead of aborting the cycle.
type CycleReport struct {
	Job       string    `json:"job"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Evaluated int       `json:"evaluated"`
	Skipped   int       `json:"skipped"`
	Actions   []string  `json:"actions"`
	Errors    []string  `json:"errors"`
}

// Trade event types published to the trade-events topic.
const (
	TradeEventOpened      = "opened"
	TradeEventPartialExit = "partial_exit"
	TradeEventClosed      = "closed"
)

// TradeEvent is one lifecycle transition of an active trade, published for
// downstream consumers (dashboards, journaling).
type TradeEvent struct {
	Type      string    `json:"type"`
	TradeKey  string    `json:"trade_key"`
	PairKey   string    `json:"pair_key"`
	Direction string    `json:"direction"`
	Z         float64   `json:"z"`
	PnLPct    float64   `json:"pnl_pct"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}
