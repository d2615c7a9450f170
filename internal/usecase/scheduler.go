package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	domservice "PairScout/internal/domain/service"
	"PairScout/pkg/config"
	"PairScout/pkg/logger"
)

// ErrJobRunning is returned when a cycle is re-triggered while the same job
// is still executing. A scan and a monitor may overlap each other.
var ErrJobRunning = errors.New("job already running")

// Scheduler drives the scan and monitor cycles on independent cadences. Each
// job runs to completion under its own is-running guard, persists its
// last-run timestamp and pushes one summary notification per cycle.
type Scheduler struct {
	scanner   *PairScanner
	lifecycle *Lifecycle
	state     domrepo.StateStore
	notifier  domservice.Notifier
	metrics   domrepo.Metrics
	scanEvery time.Duration
	monEvery  time.Duration
	log       *logger.Logger

	mu          sync.Mutex
	scanBusy    bool
	monitorBusy bool
}

func NewScheduler(
	scanner *PairScanner,
	lifecycle *Lifecycle,
	state domrepo.StateStore,
	notifier domservice.Notifier,
	metrics domrepo.Metrics,
	scanCfg config.ScannerConfig,
	lifeCfg config.LifecycleConfig,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		scanner:   scanner,
		lifecycle: lifecycle,
		state:     state,
		notifier:  notifier,
		metrics:   metrics,
		scanEvery: scanCfg.Interval,
		monEvery:  lifeCfg.Interval,
		log:       log,
	}
}

// RunScan executes one scan cycle unless one is already in flight.
func (s *Scheduler) RunScan(ctx context.Context) (*models.CycleReport, error) {
	if !s.acquire(&s.scanBusy) {
		return nil, ErrJobRunning
	}
	defer s.release(&s.scanBusy)

	start := time.Now()
	report, err := s.scanner.RunScan(ctx)
	s.metrics.RecordCycleDuration("scan", time.Since(start).Seconds())
	s.finishCycle(ctx, report, err, func(st *models.SchedulerState) { st.LastScanAt = time.Now().UTC() })
	return report, err
}

// RunMonitor executes one monitor cycle unless one is already in flight.
func (s *Scheduler) RunMonitor(ctx context.Context) (*models.CycleReport, error) {
	if !s.acquire(&s.monitorBusy) {
		return nil, ErrJobRunning
	}
	defer s.release(&s.monitorBusy)

	start := time.Now()
	report, err := s.lifecycle.RunMonitor(ctx)
	s.metrics.RecordCycleDuration("monitor", time.Since(start).Seconds())
	s.finishCycle(ctx, report, err, func(st *models.SchedulerState) { st.LastMonitorAt = time.Now().UTC() })
	return report, err
}

// Start runs both periodic loops until the context is cancelled. Feature
// toggles in the persisted scheduler state disable a loop's automatic
// trigger; manual runs through the API remain possible.
func (s *Scheduler) Start(ctx context.Context) {
	scanTicker := time.NewTicker(s.scanEvery)
	monTicker := time.NewTicker(s.monEvery)
	defer scanTicker.Stop()
	defer monTicker.Stop()

	s.log.Info("scheduler started",
		logger.Duration("scan_interval", s.scanEvery),
		logger.Duration("monitor_interval", s.monEvery))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-scanTicker.C:
			if s.enabled(ctx, func(st *models.SchedulerState) bool { return st.ScanEnabled }) {
				s.runLogged(ctx, "scan", s.RunScan)
			}
		case <-monTicker.C:
			if s.enabled(ctx, func(st *models.SchedulerState) bool { return st.MonitorEnabled }) {
				s.runLogged(ctx, "monitor", s.RunMonitor)
			}
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context, job string, run func(context.Context) (*models.CycleReport, error)) {
	report, err := run(ctx)
	switch {
	case errors.Is(err, ErrJobRunning):
		s.log.Warn("cycle still running, trigger skipped", logger.String("job", job))
	case err != nil:
		s.log.Error("cycle failed", logger.String("job", job), logger.Error(err))
	default:
		s.log.Info("cycle finished",
			logger.String("job", job),
			logger.String("duration", report.Duration),
			logger.Int("evaluated", report.Evaluated),
			logger.Int("skipped", report.Skipped),
			logger.Int("actions", len(report.Actions)))
	}
}

func (s *Scheduler) acquire(flag *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (s *Scheduler) release(flag *bool) {
	s.mu.Lock()
	*flag = false
	s.mu.Unlock()
}

// finishCycle stamps the persisted scheduler state and pushes the summary
// notification. Both are best effort; a failure never fails the cycle.
func (s *Scheduler) finishCycle(ctx context.Context, report *models.CycleReport, runErr error, stamp func(*models.SchedulerState)) {
	st, err := s.state.GetSchedulerState(ctx)
	if err != nil || st == nil {
		st = &models.SchedulerState{ScanEnabled: true, MonitorEnabled: true}
	}
	stamp(st)
	if err := s.state.SaveSchedulerState(ctx, st); err != nil {
		s.log.Warn("save scheduler state", logger.Error(err))
	}

	if s.notifier == nil || report == nil {
		return
	}
	if err := s.notifier.Notify(ctx, summarize(report, runErr)); err != nil {
		s.log.Warn("push notification", logger.Error(err))
	}
}

func (s *Scheduler) enabled(ctx context.Context, pick func(*models.SchedulerState) bool) bool {
	st, err := s.state.GetSchedulerState(ctx)
	if err != nil || st == nil {
		return true
	}
	return pick(st)
}

// summarize renders the one human-readable status line per cycle.
func summarize(r *models.CycleReport, runErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s cycle: %d evaluated, %d skipped", r.Job, r.Evaluated, r.Skipped)
	if r.Duration != "" {
		fmt.Fprintf(&b, " in %s", r.Duration)
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nfailed: %v", runErr)
	}
	for _, a := range r.Actions {
		b.WriteString("\n- ")
		b.WriteString(a)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n%d pair(s) errored", len(r.Errors))
	}
	return b.String()
}
