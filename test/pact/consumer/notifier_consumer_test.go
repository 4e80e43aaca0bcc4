//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/medisupply/restock/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	notifierclient "github.com/medisupply/restock/internal/clients/http/notifier"
	"github.com/medisupply/restock/internal/domains/inventory/domain"
	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

func TestNotificationGatewayContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	orderBodyMatcher := matchers.Map{
		"itemId":         matchers.Like(pacttest.ExampleItemID),
		"itemName":       matchers.Like(pacttest.ExampleItemName),
		"supplierName":   matchers.Like(pacttest.ExampleSupplier),
		"supplierEmails": matchers.ArrayMinLike(pacttest.ExampleEmailAddr, 1),
		"quantity":       matchers.Like(80),
		"valueCents":     matchers.Like(96000),
		"urgency":        matchers.Term("high", "high|critical"),
		"method":         matchers.Term("auto_fill", "auto_fill|fixed_quantity"),
		"manualQuantity": matchers.Like(false),
		"batchId":        matchers.Like(pacttest.ExampleBatchID),
	}
	confirmationBodyMatcher := matchers.Map{
		"itemId":          matchers.Like(pacttest.ExampleItemID),
		"itemName":        matchers.Like(pacttest.ExampleItemName),
		"quantity":        matchers.Like(80),
		"valueCents":      matchers.Like(96000),
		"previousStock":   matchers.Like(20),
		"newStock":        matchers.Like(100),
		"supplierOrderId": matchers.Like(pacttest.ExampleOrderID),
		"batchId":         matchers.Like(pacttest.ExampleBatchID),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateGatewayHealthy).
		UponReceiving("a supplier purchase order").
		WithRequest("POST", "/notifications/supplier-order", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(orderBodyMatcher)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"orderId": matchers.Like(pacttest.ExampleOrderID),
				"message": matchers.Like("order queued for delivery"),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateGatewayHealthy).
		UponReceiving("an admin restock confirmation").
		WithRequest("POST", "/notifications/admin-confirmation", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(confirmationBodyMatcher)
		}).
		WillRespondWith(http.StatusAccepted, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"message": matchers.Like("confirmation queued"),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		client, err := notifierclient.NewClient(
			fmt.Sprintf("http://%s:%d", host, config.Port),
			notifierclient.WithTimeout(5*time.Second),
		)
		if err != nil {
			return fmt.Errorf("build notifier client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		item := exampleItem()
		orderResult := client.SendSupplierOrder(ctx, ports.SupplierOrderRequest{
			Item:       item,
			Quantity:   80,
			ValueCents: 96000,
			Urgency:    domain.UrgencyHigh,
			Method:     domain.MethodAutoFill,
			BatchID:    pacttest.ExampleBatchID,
		})
		if !orderResult.Success {
			return fmt.Errorf("supplier order failed: %s", orderResult.Error)
		}
		if orderResult.OrderID == "" {
			return fmt.Errorf("expected an order reference from the gateway")
		}

		confirmResult := client.SendAdminConfirmation(ctx, ports.AdminConfirmationRequest{
			Item:            item,
			Quantity:        80,
			ValueCents:      96000,
			PreviousStock:   20,
			NewStock:        100,
			SupplierOrderID: orderResult.OrderID,
			BatchID:         pacttest.ExampleBatchID,
		})
		if !confirmResult.Success {
			return fmt.Errorf("admin confirmation failed: %s", confirmResult.Error)
		}
		return nil
	})
	require.NoError(t, err)
}

func exampleItem() *domain.Item {
	item, err := domain.NewItem(pacttest.ExampleItemID, pacttest.ExampleItemName, "consumables", 20, 25, 1200)
	if err != nil {
		panic(err)
	}
	item.Supplier = domain.Supplier{
		Name:   pacttest.ExampleSupplier,
		Emails: []string{pacttest.ExampleEmailAddr},
	}
	return item
}
