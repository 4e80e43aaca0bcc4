package ports

import (
	"context"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
)

// Service defines the restock use cases exposed to adapters (inbound port).
type Service interface {
	// CheckAndRestock runs one orchestration cycle. A concurrent in-flight
	// cycle yields a skipped report, not an error.
	CheckAndRestock(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error)
	// LowStockEligible exposes the current eligible set without mutating it.
	LowStockEligible(ctx context.Context, filterIDs []string) ([]*invtypes.ItemProjection, error)
	GetItem(ctx context.Context, id string) (*invtypes.ItemProjection, error)
	ListItems(ctx context.Context) ([]*invtypes.ItemProjection, error)
}

// Scheduler drives periodic orchestration cycles.
type Scheduler interface {
	Start()
	Stop()
	Status() invtypes.ScheduleStatus
	Trigger(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error)
}
