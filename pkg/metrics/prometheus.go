package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	cycleDuration *prometheus.HistogramVec
	pairsScanned  prometheus.Counter
	gateFailures  *prometheus.CounterVec
	tradesOpen    prometheus.Gauge
	exits         *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairscout_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairscout_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairscout_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairscout_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairscout_cycle_duration_seconds",
				Help:    "Duration of scan and monitor cycles in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"job"},
		),
		pairsScanned: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pairscout_pairs_scanned_total",
				Help: "Total number of candidate pairs evaluated by the scanner",
			},
		),
		gateFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairscout_gate_failures_total",
				Help: "Entry and scan gate failures by gate name",
			},
			[]string{"gate"},
		),
		tradesOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pairscout_trades_open",
				Help: "Number of currently open pair trades",
			},
		),
		exits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairscout_trade_exits_total",
				Help: "Trade exit actions by reason",
			},
			[]string{"reason"},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCycleDuration records how long a scan or monitor cycle took.
func (r *Recorder) RecordCycleDuration(job string, seconds float64) {
	r.cycleDuration.WithLabelValues(job).Observe(seconds)
}

// RecordPairsScanned adds the number of pairs evaluated in a scan cycle.
func (r *Recorder) RecordPairsScanned(n int) {
	r.pairsScanned.Add(float64(n))
}

// RecordGateFailure records a failed admission or entry gate.
func (r *Recorder) RecordGateFailure(gate string) {
	r.gateFailures.WithLabelValues(gate).Inc()
}

// RecordTradesOpen sets the open-trade gauge.
func (r *Recorder) RecordTradesOpen(n int) {
	r.tradesOpen.Set(float64(n))
}

// RecordExit records one exit action by reason.
func (r *Recorder) RecordExit(reason string) {
	r.exits.WithLabelValues(reason).Inc()
}
