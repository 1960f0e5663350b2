package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/config"
	"skillarena/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewTestConfig()
	cfg.PaymentGatewayBaseURL = server.URL
	cfg.PaymentGatewayClientID = "client-id"
	cfg.PaymentGatewayClientSecret = "client-secret"
	return NewClient(cfg)
}

func TestClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "client-id", r.Header.Get("x-client-id"))
		assert.Equal(t, "client-secret", r.Header.Get("x-client-secret"))
		assert.Equal(t, "2023-08-01", r.Header.Get("x-api-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "order_1", body["order_id"])
		assert.Equal(t, float64(500), body["order_amount"])
		assert.Equal(t, "INR", body["order_currency"])
		customer := body["customer_details"].(map[string]any)
		assert.Equal(t, "7", customer["customer_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id":"order_1","payment_session_id":"session_xyz","order_status":"ACTIVE"}`))
	})

	order, err := client.CreateOrder(context.Background(), models.GatewayOrderRequest{
		OrderID:       "order_1",
		Amount:        500,
		CustomerID:    7,
		CustomerEmail: "sam@example.com",
		CustomerName:  "sam",
	})

	require.NoError(t, err)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, "session_xyz", order.SessionToken)
}

func TestClient_CreateOrder_GatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"order_amount is invalid","code":"order_amount_invalid"}`))
	})

	_, err := client.CreateOrder(context.Background(), models.GatewayOrderRequest{OrderID: "order_1", Amount: 1})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_amount is invalid")
}

func TestClient_FetchOrderStatus(t *testing.T) {
	tests := []struct {
		gatewayStatus string
		want          models.GatewayOrderStatus
	}{
		{"PAID", models.GatewayOrderPaid},
		{"ACTIVE", models.GatewayOrderPending},
		{"EXPIRED", models.GatewayOrderFailed},
		{"TERMINATED", models.GatewayOrderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.gatewayStatus, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/orders/order_1", r.URL.Path)
				_, _ = w.Write([]byte(`{"order_id":"order_1","order_status":"` + tt.gatewayStatus + `"}`))
			})

			status, err := client.FetchOrderStatus(context.Background(), "order_1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}
