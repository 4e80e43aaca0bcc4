package ports

import (
	"context"

	"github.com/medisupply/restock/internal/domains/inventory/domain"
)

// SupplierOrderRequest describes the purchase order sent to an item's supplier.
type SupplierOrderRequest struct {
	Item           *domain.Item
	Quantity       int
	ValueCents     int64
	Urgency        domain.Urgency
	Method         domain.RestockMethod
	ManualQuantity bool
	BatchID        string
}

// SupplierOrderResult reports delivery of a purchase order. Failures are
// values, never panics or aborted cycles.
type SupplierOrderResult struct {
	Success bool
	OrderID string
	Error   string
}

// AdminConfirmationRequest summarizes a completed restock transaction for
// the administrative recipients.
type AdminConfirmationRequest struct {
	Item            *domain.Item
	Quantity        int
	ValueCents      int64
	PreviousStock   int
	NewStock        int
	SupplierOrderID string
	BatchID         string
}

// AdminConfirmationResult reports best-effort delivery of the confirmation.
type AdminConfirmationResult struct {
	Success bool
	Error   string
}

// Notifier is the outbound port to the notification sender.
type Notifier interface {
	SendSupplierOrder(ctx context.Context, req SupplierOrderRequest) SupplierOrderResult
	SendAdminConfirmation(ctx context.Context, req AdminConfirmationRequest) AdminConfirmationResult
}
