package restock

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	invports "github.com/medisupply/restock/internal/domains/inventory/ports"
)

// RunCycleActivityName executes one restock orchestration cycle.
const RunCycleActivityName = "inventory.activities.RunRestockCycle"

// Activities groups activities that operate on the inventory bounded context.
type Activities struct {
	service invports.Service
}

// NewActivities wires the restock service into the Temporal activities bundle.
func NewActivities(service invports.Service) *Activities {
	return &Activities{service: service}
}

// RunCycle delegates one restock cycle to the orchestrator and returns the
// batch report. The orchestrator's own re-entrancy guard makes a retried
// invocation safe: it either skips or re-discovers unresolved low stock.
func (a *Activities) RunCycle(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("restock activity not initialized")
		return nil, errors.New("restock activity not initialized")
	}
	logger.Info("RunRestockCycle activity started", "filterCount", len(options.FilterItems))
	report, err := a.service.CheckAndRestock(ctx, options)
	if err != nil {
		logger.Error("RunRestockCycle activity failed", "error", err)
		return nil, err
	}
	logger.Info("RunRestockCycle activity completed",
		"batchId", report.BatchID,
		"skipped", report.Skipped,
		"itemsProcessed", report.ItemsProcessed,
	)
	return report, nil
}
