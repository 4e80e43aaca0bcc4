package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

// IntervalScheduler drives the orchestrator on a fixed period. There is no
// paused state: the machine is Stopped or Running.
type IntervalScheduler struct {
	service ports.Service
	period  time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	running   bool
	stop      chan struct{}
	nextRun   time.Time
	lastStart *time.Time
}

// NewIntervalScheduler builds a stopped scheduler around the restock service.
func NewIntervalScheduler(service ports.Service, period time.Duration, logger *slog.Logger) *IntervalScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalScheduler{
		service: service,
		period:  period,
		logger:  logger,
	}
}

// Start begins the periodic cycle. Calling Start on a running scheduler is a
// no-op with a warning.
func (s *IntervalScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("restock scheduler already running", slog.Duration("period", s.period))
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.nextRun = time.Now().Add(s.period)
	s.logger.Info("restock scheduler started", slog.Duration("period", s.period))
	go s.loop(s.stop)
}

// Stop cancels future ticks. An in-flight cycle runs to completion.
func (s *IntervalScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	s.stop = nil
	s.logger.Info("restock scheduler stopped")
}

// Status returns the current scheduler snapshot.
func (s *IntervalScheduler) Status() invtypes.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := invtypes.ScheduleStatus{
		Running:        s.running,
		SchedulePeriod: s.period,
	}
	if s.running {
		next := s.nextRun
		status.NextRunEstimate = &next
	}
	if s.lastStart != nil {
		last := *s.lastStart
		status.LastRunStartedAt = &last
	}
	return status
}

// Trigger runs a cycle immediately, sharing the orchestrator's re-entrancy
// guard with the timer path.
func (s *IntervalScheduler) Trigger(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	return s.service.CheckAndRestock(ctx, options)
}

func (s *IntervalScheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runScheduled()
		}
	}
}

// runScheduled executes one tick. Errors and panics are logged, never
// propagated: a failing cycle must not kill the schedule. The cycle runs on
// a background context so Stop cannot interrupt it mid-item.
func (s *IntervalScheduler) runScheduled() {
	started := time.Now()
	s.mu.Lock()
	s.lastStart = &started
	s.nextRun = started.Add(s.period)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("restock cycle panicked", slog.Any("panic", r))
		}
	}()

	report, err := s.service.CheckAndRestock(context.Background(), invtypes.RestockOptions{})
	if err != nil {
		s.logger.Error("scheduled restock cycle failed", slog.String("error", err.Error()))
		return
	}
	if report.Skipped {
		s.logger.Info("scheduled restock cycle skipped, previous cycle still in flight")
		return
	}
	s.logger.Info("scheduled restock cycle completed",
		slog.String("batchId", report.BatchID),
		slog.Int("itemsProcessed", report.ItemsProcessed),
		slog.Int64("totalRestockValueCents", report.TotalRestockValueCents),
	)
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)
