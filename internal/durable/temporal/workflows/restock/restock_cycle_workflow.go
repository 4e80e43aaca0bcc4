package restock

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	restockactivities "github.com/medisupply/restock/internal/platform/temporal/activities/restock"
)

const (
	// CycleWorkflowName is the public identifier for registering the workflow.
	CycleWorkflowName = "inventory.workflows.RestockCycle"
	// CycleTaskQueue is the queue consumed by the worker processing restock workflows.
	CycleTaskQueue = "INVENTORY_RESTOCK"
)

// CycleWorkflowInput captures the payload required to run one restock cycle.
type CycleWorkflowInput struct {
	Options invtypes.RestockOptions
	TraceID string
}

// CycleWorkflow runs one restock cycle as a single activity. The cycle is
// safe to retry: it only fails before any mutation (store query) and the
// orchestrator guard skips overlapping runs.
func CycleWorkflow(ctx workflow.Context, input CycleWorkflowInput) (*invtypes.BatchReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("RestockCycleWorkflow started", withTraceID(input.TraceID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var report invtypes.BatchReport
	err := workflow.ExecuteActivity(
		workflow.WithActivityOptions(ctx, options),
		restockactivities.RunCycleActivityName,
		input.Options,
	).Get(ctx, &report)
	if err != nil {
		logger.Error("RestockCycleWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("RestockCycleWorkflow completed",
		withTraceID(input.TraceID, "batchId", report.BatchID, "itemsProcessed", report.ItemsProcessed)...)
	return &report, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
