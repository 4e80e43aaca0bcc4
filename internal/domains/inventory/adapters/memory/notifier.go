package memory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

var _ ports.Notifier = (*LogNotifier)(nil)

// LogNotifier records notifications in the process log instead of delivering
// them. It stands in for the notification gateway in local development and
// fabricates order references so cycles still complete end to end.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendSupplierOrder logs the purchase order and returns a generated reference.
func (n *LogNotifier) SendSupplierOrder(ctx context.Context, req ports.SupplierOrderRequest) ports.SupplierOrderResult {
	orderID := "dev-" + uuid.NewString()
	n.logger.InfoContext(ctx, "supplier order (log only)",
		slog.String("item_id", req.Item.ID),
		slog.String("supplier", req.Item.Supplier.Name),
		slog.Int("quantity", req.Quantity),
		slog.Int64("value_cents", req.ValueCents),
		slog.String("urgency", string(req.Urgency)),
		slog.String("order_id", orderID),
	)
	return ports.SupplierOrderResult{Success: true, OrderID: orderID}
}

// SendAdminConfirmation logs the confirmation summary.
func (n *LogNotifier) SendAdminConfirmation(ctx context.Context, req ports.AdminConfirmationRequest) ports.AdminConfirmationResult {
	n.logger.InfoContext(ctx, "admin confirmation (log only)",
		slog.String("item_id", req.Item.ID),
		slog.Int("quantity", req.Quantity),
		slog.Int("previous_stock", req.PreviousStock),
		slog.Int("new_stock", req.NewStock),
		slog.String("supplier_order_id", req.SupplierOrderID),
	)
	return ports.AdminConfirmationResult{Success: true}
}
