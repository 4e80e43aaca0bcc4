package ports

import (
	"context"

	invtypes "github.com/medisupply/restock/internal/domains/inventory/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations for the
// inventory bounded context.
type WorkflowOrchestrator interface {
	RunRestockCycle(ctx context.Context, options invtypes.RestockOptions) (*invtypes.BatchReport, error)
}
