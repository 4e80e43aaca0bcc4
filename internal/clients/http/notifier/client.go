package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/medisupply/restock/internal/domains/inventory/ports"
)

var _ ports.Notifier = (*Client)(nil)

// Client delivers supplier orders and admin confirmations over the
// notification gateway's REST API.
type Client struct {
	http *resty.Client
}

// Option configures the notification client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// NewClient instantiates the notification client with sane defaults.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("notifier base URL is required")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetRetryCount(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type supplierOrderPayload struct {
	ItemID         string   `json:"itemId"`
	ItemName       string   `json:"itemName"`
	SupplierName   string   `json:"supplierName,omitempty"`
	SupplierEmails []string `json:"supplierEmails,omitempty"`
	Quantity       int      `json:"quantity"`
	ValueCents     int64    `json:"valueCents"`
	Urgency        string   `json:"urgency"`
	Method         string   `json:"method"`
	ManualQuantity bool     `json:"manualQuantity"`
	BatchID        string   `json:"batchId"`
}

type supplierOrderResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type adminConfirmationPayload struct {
	ItemID          string `json:"itemId"`
	ItemName        string `json:"itemName"`
	Quantity        int    `json:"quantity"`
	ValueCents      int64  `json:"valueCents"`
	PreviousStock   int    `json:"previousStock"`
	NewStock        int    `json:"newStock"`
	SupplierOrderID string `json:"supplierOrderId,omitempty"`
	BatchID         string `json:"batchId"`
}

type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// SendSupplierOrder posts a purchase order to the gateway and returns the
// order reference it assigned. Delivery failures come back as an unsuccessful
// result rather than an error so the caller can keep the cycle moving.
func (c *Client) SendSupplierOrder(ctx context.Context, request ports.SupplierOrderRequest) ports.SupplierOrderResult {
	if c == nil || c.http == nil {
		return ports.SupplierOrderResult{Error: "notifier client not configured"}
	}
	payload := supplierOrderPayload{
		ItemID:         request.Item.ID,
		ItemName:       request.Item.Name,
		SupplierName:   request.Item.Supplier.Name,
		SupplierEmails: request.Item.Supplier.Emails,
		Quantity:       request.Quantity,
		ValueCents:     request.ValueCents,
		Urgency:        string(request.Urgency),
		Method:         string(request.Method),
		ManualQuantity: request.ManualQuantity,
		BatchID:        request.BatchID,
	}
	var (
		body    supplierOrderResponse
		failure errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&body).
		SetError(&failure).
		Post("/notifications/supplier-order")
	if err != nil {
		return ports.SupplierOrderResult{Error: fmt.Sprintf("call notification gateway: %v", err)}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return ports.SupplierOrderResult{Error: gatewayError("supplier order", resp.Status(), failure)}
	}
	if strings.TrimSpace(body.OrderID) == "" {
		return ports.SupplierOrderResult{Error: "notification gateway returned no order reference"}
	}
	return ports.SupplierOrderResult{Success: true, OrderID: body.OrderID}
}

// SendAdminConfirmation posts the post-restock summary for the admin team.
func (c *Client) SendAdminConfirmation(ctx context.Context, request ports.AdminConfirmationRequest) ports.AdminConfirmationResult {
	if c == nil || c.http == nil {
		return ports.AdminConfirmationResult{Error: "notifier client not configured"}
	}
	payload := adminConfirmationPayload{
		ItemID:          request.Item.ID,
		ItemName:        request.Item.Name,
		Quantity:        request.Quantity,
		ValueCents:      request.ValueCents,
		PreviousStock:   request.PreviousStock,
		NewStock:        request.NewStock,
		SupplierOrderID: request.SupplierOrderID,
		BatchID:         request.BatchID,
	}
	var failure errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(&failure).
		Post("/notifications/admin-confirmation")
	if err != nil {
		return ports.AdminConfirmationResult{Error: fmt.Sprintf("call notification gateway: %v", err)}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return ports.AdminConfirmationResult{Error: gatewayError("admin confirmation", resp.Status(), failure)}
	}
	return ports.AdminConfirmationResult{Success: true}
}

func gatewayError(operation, status string, body errorResponse) string {
	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = strings.TrimSpace(body.Detail)
	}
	if msg == "" {
		msg = status
	}
	return fmt.Sprintf("notification gateway rejected %s: %s", operation, msg)
}
