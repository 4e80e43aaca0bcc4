package types

import (
	"time"

	"github.com/medisupply/restock/internal/domains/inventory/domain"
)

// RestockOptions narrows and tunes a single orchestration cycle.
// A nil RespectManualQuantities defaults to true: configured fixed
// quantities win over the auto-fill formula.
type RestockOptions struct {
	FilterItems             []string
	RespectManualQuantities *bool
	// PreserveValue is reserved for cost-basis accounting and currently
	// informational only.
	PreserveValue bool
}

// HonorManualQuantities resolves the optional flag with its default.
func (o RestockOptions) HonorManualQuantities() bool {
	if o.RespectManualQuantities == nil {
		return true
	}
	return *o.RespectManualQuantities
}

// RestockResult captures the outcome for one item inside a cycle. Failed
// items carry ErrorMessage and never abort the batch.
type RestockResult struct {
	ItemID               string
	ItemName             string
	Success              bool
	CurrentStock         int
	RestockQuantity      int
	RestockValueCents    int64
	FinalStock           int
	FinalTotalValueCents int64
	Urgency              domain.Urgency
	EmailSent            bool
	OrderID              string
	ErrorMessage         string
}

// BatchReport aggregates one orchestration cycle.
type BatchReport struct {
	BatchID                string
	StartedAt              time.Time
	ItemsEligible          int
	ItemsProcessed         int
	TotalRestockValueCents int64
	Results                []RestockResult
	// Message explains empty or skipped cycles; it is informational, not an error.
	Message string
	// Skipped is true when a concurrent cycle was already in flight and this
	// invocation returned without touching the store.
	Skipped bool
}

// ScheduleStatus is the scheduler snapshot exposed to the operational surface.
type ScheduleStatus struct {
	Running          bool
	SchedulePeriod   time.Duration
	NextRunEstimate  *time.Time
	LastRunStartedAt *time.Time
}

// ItemProjection transports the aggregate together with persistence metadata.
type ItemProjection struct {
	Item     *domain.Item
	Metadata ItemMetadata
}

// ItemMetadata captures infrastructure timestamps associated with a persisted item.
type ItemMetadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItemProjection wraps an aggregate with persistence metadata.
func NewItemProjection(item *domain.Item, createdAt, updatedAt time.Time) *ItemProjection {
	if item == nil {
		return nil
	}
	return &ItemProjection{
		Item:     item,
		Metadata: ItemMetadata{CreatedAt: createdAt, UpdatedAt: updatedAt},
	}
}

// RestockUpdate is the atomic mutation handed to the repository after a
// successful plan: the conditional write must only apply while the stored
// quantity still equals ExpectedStock.
type RestockUpdate struct {
	ExpectedStock int
	NewQuantity   int
	Entry         domain.RestockEntry
	LastRun       time.Time
}
