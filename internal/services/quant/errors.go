package quant

import "errors"

// ErrInsufficientData marks a pair/series with too few aligned points. The
// caller skips the affected pair for the cycle, never the whole cycle.
var ErrInsufficientData = errors.New("insufficient data points")

// ErrDegenerateSeries marks a series the estimators cannot operate on, e.g.
// non-positive prices that break the log-spread domain.
var ErrDegenerateSeries = errors.New("degenerate price series")
