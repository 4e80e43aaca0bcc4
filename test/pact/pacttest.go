//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "notification-gateway"
	ConsumerName = "restock-service"

	StateGatewayHealthy  = "notification gateway healthy"
	StateGatewayRejected = "notification gateway rejects malformed orders"
)

const (
	ExampleItemID    = "med-00417"
	ExampleItemName  = "Nitrile Gloves (M)"
	ExampleSupplier  = "Andes Medical Supplies"
	ExampleBatchID   = "batch-7f3d2a10"
	ExampleOrderID   = "PO-2045-0091"
	ExampleEmailAddr = "orders@andesmedical.example"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the restock consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleSupplierOrderPayload provides stable test data for order interactions.
func ExampleSupplierOrderPayload() map[string]any {
	return map[string]any{
		"itemId":         ExampleItemID,
		"itemName":       ExampleItemName,
		"supplierName":   ExampleSupplier,
		"supplierEmails": []string{ExampleEmailAddr},
		"quantity":       80,
		"valueCents":     int64(96000),
		"urgency":        "high",
		"method":         "auto_fill",
		"manualQuantity": false,
		"batchId":        ExampleBatchID,
	}
}

// ExampleAdminConfirmationPayload provides stable test data for confirmations.
func ExampleAdminConfirmationPayload() map[string]any {
	return map[string]any{
		"itemId":          ExampleItemID,
		"itemName":        ExampleItemName,
		"quantity":        80,
		"valueCents":      int64(96000),
		"previousStock":   20,
		"newStock":        100,
		"supplierOrderId": ExampleOrderID,
		"batchId":         ExampleBatchID,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
