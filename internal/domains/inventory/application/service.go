package application

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

const (
	skippedCycleMessage = "restock cycle already in progress; skipping"
	emptyCycleMessage   = "no items at or below their reorder threshold"
)

// Service orchestrates the auto-restock use cases. The re-entrancy guard is
// owned by the instance, so independent services (one per test, for example)
// never share state.
type Service struct {
	repo     ports.Repository
	notifier ports.Notifier
	clock    func() time.Time
	inFlight atomic.Bool
}

// Option tunes service construction.
type Option func(*Service)

// WithClock overrides the time source, used by tests to pin history dates.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService wires the restock orchestrator with its collaborators.
func NewService(repo ports.Repository, notifier ports.Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CheckAndRestock runs one orchestration cycle: query the eligible set, plan
// each item, notify the supplier, persist the atomic update, and confirm to
// the admins. Items are processed sequentially so history entries reflect
// real completion order. A concurrent invocation returns a skipped report
// immediately without touching the store.
func (s *Service) CheckAndRestock(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	now := s.clock()
	if !s.inFlight.CompareAndSwap(false, true) {
		return &invtypes.BatchReport{
			BatchID:   uuid.NewString(),
			StartedAt: now,
			Skipped:   true,
			Message:   skippedCycleMessage,
		}, nil
	}
	defer s.inFlight.Store(false)

	report := &invtypes.BatchReport{
		BatchID:   uuid.NewString(),
		StartedAt: now,
	}

	projections, err := s.repo.FindLowStockEligible(ctx, options.FilterItems)
	if err != nil {
		return nil, mapStoreError(err)
	}
	report.ItemsEligible = len(projections)
	if len(projections) == 0 {
		report.Message = emptyCycleMessage
		return report, nil
	}

	honorManual := options.HonorManualQuantities()
	for _, projection := range projections {
		if projection == nil || projection.Item == nil {
			continue
		}
		result := s.restockItem(ctx, projection.Item, honorManual, report.BatchID)
		report.Results = append(report.Results, result)
		report.ItemsProcessed++
		if result.Success {
			report.TotalRestockValueCents += result.RestockValueCents
		}
	}
	return report, nil
}

// restockItem handles one item end to end. Every failure is converted to
// data on the result; nothing thrown here may abort the batch.
func (s *Service) restockItem(ctx context.Context, item *domain.Item, honorManual bool, batchID string) invtypes.RestockResult {
	result := invtypes.RestockResult{
		ItemID:       item.ID,
		ItemName:     item.Name,
		CurrentStock: item.Quantity,
		Urgency:      item.OrderUrgency(),
	}

	plan, err := domain.PlanRestock(item, honorManual)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	result.RestockQuantity = plan.RestockQuantity
	result.RestockValueCents = plan.RestockValueCents
	result.FinalStock = plan.FinalStock
	result.FinalTotalValueCents = plan.FinalTotalValueCents

	// Supplier notification first; a delivery failure never blocks the
	// stock update, it is recorded for later reconciliation.
	order := s.notifier.SendSupplierOrder(ctx, ports.SupplierOrderRequest{
		Item:           item,
		Quantity:       plan.RestockQuantity,
		ValueCents:     plan.RestockValueCents,
		Urgency:        result.Urgency,
		Method:         item.AutoRestock.Method,
		ManualQuantity: honorManual && item.AutoRestock.Method == domain.MethodFixedQuantity && item.AutoRestock.ReorderQuantity > 0,
		BatchID:        batchID,
	})
	result.EmailSent = order.Success
	result.OrderID = order.OrderID
	if !order.Success && order.OrderID == "" {
		// Keep the audit trail traceable even when the sender never
		// produced an identifier.
		result.OrderID = "local-" + uuid.NewString()
	}

	now := s.clock()
	entry, err := item.RecordRestock(plan.RestockQuantity, result.OrderID, order.Success, now)
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	if _, err := s.repo.ApplyRestock(ctx, item.ID, invtypes.RestockUpdate{
		ExpectedStock: entry.PreviousStock,
		NewQuantity:   entry.NewStock,
		Entry:         entry,
		LastRun:       now,
	}); err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	// Best effort: confirmation failures are captured by the decorator's
	// logging, never by the batch outcome.
	s.notifier.SendAdminConfirmation(ctx, ports.AdminConfirmationRequest{
		Item:            item,
		Quantity:        entry.Amount,
		ValueCents:      entry.ValueCents,
		PreviousStock:   entry.PreviousStock,
		NewStock:        entry.NewStock,
		SupplierOrderID: entry.SupplierOrderID,
		BatchID:         batchID,
	})

	result.Success = true
	return result
}

// LowStockEligible exposes the current eligible set without running a cycle.
func (s *Service) LowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error) {
	projections, err := s.repo.FindLowStockEligible(ctx, filterIDs)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return projections, nil
}

// GetItem loads a single item aggregate.
func (s *Service) GetItem(ctx context.Context, id string) (*invtypes.ItemProjection, error) {
	return s.repo.GetByID(ctx, id)
}

// ListItems exposes all items for the operational surface.
func (s *Service) ListItems(ctx context.Context) ([]*invtypes.ItemProjection, error) {
	return s.repo.List(ctx)
}

var _ ports.Service = (*Service)(nil)
