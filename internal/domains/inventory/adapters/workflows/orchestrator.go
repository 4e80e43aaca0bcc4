package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
	restockworkflows "github.com/medisupply/restock/internal/durable/temporal/workflows/restock"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalRestockWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineRestockWorkflows)(nil)
)

// restockCycleWorkflowID keeps one durable cycle per process fleet: starting
// a second workflow while one is running fails with AlreadyStarted, which
// maps onto the orchestrator's skip semantics.
const restockCycleWorkflowID = "inventory-restock-cycle"

// TemporalRestockWorkflows starts restock workflows on a Temporal cluster.
type TemporalRestockWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalRestockWorkflows wires a Temporal client into the orchestrator.
func NewTemporalRestockWorkflows(c client.Client) *TemporalRestockWorkflows {
	return &TemporalRestockWorkflows{
		client:    c,
		taskQueue: restockworkflows.CycleTaskQueue,
	}
}

// RunRestockCycle starts the durable workflow that executes one cycle and
// waits for its report.
func (o *TemporalRestockWorkflows) RunRestockCycle(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal restock workflows not configured")
	}
	startOptions := client.StartWorkflowOptions{
		ID:        restockCycleWorkflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		startOptions,
		restockworkflows.CycleWorkflow,
		restockworkflows.CycleWorkflowInput{Options: options, TraceID: workflowTraceComponent(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return &invtypes.BatchReport{
				StartedAt: time.Now(),
				Skipped:   true,
				Message:   "restock cycle workflow already running; skipping",
			}, nil
		}
		return nil, err
	}
	var report invtypes.BatchReport
	if err := run.Get(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// InlineRestockWorkflows executes the service directly without Temporal,
// useful for tests or dev fallbacks.
type InlineRestockWorkflows struct {
	service ports.Service
}

// NewInlineRestockWorkflows wraps the restock service for synchronous execution.
func NewInlineRestockWorkflows(service ports.Service) *InlineRestockWorkflows {
	return &InlineRestockWorkflows{service: service}
}

// RunRestockCycle delegates to the application service without durable orchestration.
func (o *InlineRestockWorkflows) RunRestockCycle(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline restock workflows not configured")
	}
	return o.service.CheckAndRestock(ctx, options)
}

func workflowTraceComponent(ctx context.Context) string {
	traceID := workflowTraceID(ctx)
	if traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
