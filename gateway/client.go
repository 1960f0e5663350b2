package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"skillarena/config"
	"skillarena/models"
	"skillarena/service"
)

var _ service.PaymentGateway = (*Client)(nil)

const (
	defaultTimeout = 15 * time.Second
	currency       = "INR"
)

// Client talks to the payment gateway's orders API
type Client struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	APIVersion    string
	WebhookSecret string
	ReturnURL     string
	HTTP          *http.Client

	now func() time.Time
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(cfg.PaymentGatewayBaseURL, "/"),
		ClientID:      cfg.PaymentGatewayClientID,
		ClientSecret:  cfg.PaymentGatewayClientSecret,
		APIVersion:    cfg.PaymentGatewayAPIVersion,
		WebhookSecret: cfg.PaymentWebhookSecret,
		ReturnURL:     cfg.PaymentReturnURL,
		HTTP: &http.Client{
			Timeout: defaultTimeout,
		},
		now: time.Now,
	}
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type createOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails customerDetails `json:"customer_details"`
	OrderMeta       *orderMeta      `json:"order_meta,omitempty"`
}

type orderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// CreateOrder opens a checkout session for a deposit
func (c *Client) CreateOrder(ctx context.Context, req models.GatewayOrderRequest) (*models.GatewayOrder, error) {
	body := createOrderRequest{
		OrderID:       req.OrderID,
		OrderAmount:   decimal.NewFromInt(req.Amount).InexactFloat64(),
		OrderCurrency: currency,
		CustomerDetails: customerDetails{
			CustomerID:    req.CustomerID.String(),
			CustomerEmail: req.CustomerEmail,
			CustomerName:  req.CustomerName,
		},
	}
	if c.ReturnURL != "" {
		body.OrderMeta = &orderMeta{ReturnURL: strings.ReplaceAll(c.ReturnURL, "{order_id}", req.OrderID)}
	}

	var out orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, fmt.Errorf("failed to create order %s: %w", req.OrderID, err)
	}
	if out.PaymentSessionID == "" {
		return nil, fmt.Errorf("gateway returned no session for order %s", req.OrderID)
	}

	log.WithFields(log.Fields{
		"orderId": out.OrderID,
		"amount":  req.Amount,
	}).Debug("Gateway order created")

	return &models.GatewayOrder{
		OrderID:      out.OrderID,
		SessionToken: out.PaymentSessionID,
	}, nil
}

// FetchOrderStatus asks the gateway whether an order has been paid
func (c *Client) FetchOrderStatus(ctx context.Context, orderID string) (models.GatewayOrderStatus, error) {
	var out orderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &out); err != nil {
		return "", fmt.Errorf("failed to fetch order %s: %w", orderID, err)
	}
	return orderStatus(out.OrderStatus), nil
}

// orderStatus maps the gateway's order states onto ours
func orderStatus(s string) models.GatewayOrderStatus {
	switch strings.ToUpper(s) {
	case "PAID", "SUCCESS":
		return models.GatewayOrderPaid
	case "EXPIRED", "TERMINATED", "FAILED", "USER_DROPPED", "CANCELLED":
		return models.GatewayOrderFailed
	default:
		return models.GatewayOrderPending
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-client-id", c.ClientID)
	req.Header.Set("x-client-secret", c.ClientSecret)
	req.Header.Set("x-api-version", c.APIVersion)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
