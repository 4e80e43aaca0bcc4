package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	invports "github.com/medisupply/restock/internal/domains/inventory/ports"
)

const tracerName = "github.com/medisupply/restock/internal/domains/inventory/adapters/observability/service"

// Service decorates the restock service with tracing, logging, and metrics.
type Service struct {
	inner   invports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core restock service.
func New(inner invports.Service, opts ...Option) invports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CheckAndRestock(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	ctx, span := s.tracer.Start(ctx, "RestockService.CheckAndRestock",
		trace.WithAttributes(
			attribute.Int("restock.filter_count", len(options.FilterItems)),
			attribute.Bool("restock.honor_manual_quantities", options.HonorManualQuantities()),
		))
	defer span.End()

	s.logInfo(ctx, "restock cycle starting", slog.Int("filterCount", len(options.FilterItems)))
	report, err := s.inner.CheckAndRestock(ctx, options)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "restock cycle failed to run")
	}
	span.SetAttributes(
		attribute.String("restock.batch_id", report.BatchID),
		attribute.Bool("restock.skipped", report.Skipped),
		attribute.Int("restock.items_processed", report.ItemsProcessed),
	)
	if report.Skipped {
		s.metrics.recordSkipped(ctx)
		s.logInfo(ctx, "restock cycle skipped", slog.String("batchId", report.BatchID))
		return report, nil
	}
	s.metrics.recordCycle(ctx, report)
	for _, result := range report.Results {
		if result.Success {
			continue
		}
		s.logError(ctx, "item restock failed", nil,
			slog.String("batchId", report.BatchID),
			slog.String("itemId", result.ItemID),
			slog.String("reason", result.ErrorMessage),
		)
	}
	s.logInfo(ctx, "restock cycle completed",
		slog.String("batchId", report.BatchID),
		slog.Int("itemsEligible", report.ItemsEligible),
		slog.Int("itemsProcessed", report.ItemsProcessed),
		slog.Int64("totalRestockValueCents", report.TotalRestockValueCents),
	)
	return report, nil
}

func (s *Service) LowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	ctx, span := s.tracer.Start(ctx, "RestockService.LowStockEligible")
	defer span.End()

	result, err := s.inner.LowStockEligible(ctx, filterIDs)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to query low stock items")
	}
	span.SetAttributes(attribute.Int("inventory.low_stock.count", len(result)))
	return result, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (*invtypes.ItemProjection, error) {
	ctx, span := s.tracer.Start(ctx, "RestockService.GetItem", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	result, err := s.inner.GetItem(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load item", slog.String("itemId", id))
	}
	return result, nil
}

func (s *Service) ListItems(ctx context.Context) ([]*invtypes.ItemProjection, error) {
	ctx, span := s.tracer.Start(ctx, "RestockService.ListItems")
	defer span.End()

	result, err := s.inner.ListItems(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list items")
	}
	span.SetAttributes(attribute.Int("inventory.items.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	cyclesRun      metric.Int64Counter
	cyclesSkipped  metric.Int64Counter
	itemsRestocked metric.Int64Counter
	restockValue   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	cyclesRun, _ := m.Int64Counter("inventory.restock.cycles_run", metric.WithDescription("Number of restock cycles executed"))
	cyclesSkipped, _ := m.Int64Counter("inventory.restock.cycles_skipped", metric.WithDescription("Number of restock cycles skipped due to a cycle already in flight"))
	itemsRestocked, _ := m.Int64Counter("inventory.restock.items_restocked", metric.WithDescription("Number of items restocked"))
	restockValue, _ := m.Int64Counter("inventory.restock.value_cents", metric.WithDescription("Total restock value in cents"))
	return serviceMetrics{
		cyclesRun:      cyclesRun,
		cyclesSkipped:  cyclesSkipped,
		itemsRestocked: itemsRestocked,
		restockValue:   restockValue,
	}
}

func (m serviceMetrics) recordCycle(ctx context.Context, report *invtypes.BatchReport) {
	if m.cyclesRun != nil {
		m.cyclesRun.Add(ctx, 1)
	}
	succeeded := int64(0)
	for _, result := range report.Results {
		if result.Success {
			succeeded++
		}
	}
	if m.itemsRestocked != nil && succeeded > 0 {
		m.itemsRestocked.Add(ctx, succeeded)
	}
	if m.restockValue != nil && report.TotalRestockValueCents > 0 {
		m.restockValue.Add(ctx, report.TotalRestockValueCents)
	}
}

func (m serviceMetrics) recordSkipped(ctx context.Context) {
	if m.cyclesSkipped != nil {
		m.cyclesSkipped.Add(ctx, 1)
	}
}

var _ invports.Service = (*Service)(nil)
