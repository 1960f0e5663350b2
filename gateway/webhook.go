package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"skillarena/models"
)

// MaxWebhookSkew bounds how old (or how far in the future) a webhook timestamp may be
const MaxWebhookSkew = 5 * time.Minute

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleWebhook     = errors.New("webhook timestamp outside allowed window")
)

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID     string          `json:"order_id"`
			OrderAmount decimal.Decimal `json:"order_amount"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string          `json:"payment_status"`
			PaymentAmount decimal.Decimal `json:"payment_amount"`
		} `json:"payment"`
	} `json:"data"`
}

// Sign computes the signature the gateway attaches to a webhook
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseWebhook verifies a webhook's signature and timestamp and decodes it
func (c *Client) ParseWebhook(signature, timestamp string, body []byte) (*models.GatewayWebhook, error) {
	if c.WebhookSecret == "" {
		return nil, errors.New("webhook secret is not configured")
	}

	expected := Sign(c.WebhookSecret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	sent, err := parseTimestamp(timestamp)
	if err != nil {
		return nil, err
	}
	if skew := c.now().Sub(sent); skew > MaxWebhookSkew || skew < -MaxWebhookSkew {
		return nil, ErrStaleWebhook
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}
	if payload.Data.Order.OrderID == "" {
		return nil, errors.New("webhook carries no order id")
	}

	amount := payload.Data.Payment.PaymentAmount
	if amount.IsZero() {
		amount = payload.Data.Order.OrderAmount
	}

	return &models.GatewayWebhook{
		OrderID: payload.Data.Order.OrderID,
		Status:  orderStatus(payload.Data.Payment.PaymentStatus),
		Amount:  amount.Floor().IntPart(),
	}, nil
}

// parseTimestamp accepts unix seconds or milliseconds
func parseTimestamp(ts string) (time.Time, error) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid webhook timestamp %q", ts)
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}
