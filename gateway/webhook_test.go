package gateway

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/models"
)

const testSecret = "whsec_test"

func webhookClient(now time.Time) *Client {
	return &Client{
		WebhookSecret: testSecret,
		now:           func() time.Time { return now },
	}
}

func paymentBody(status string) []byte {
	return []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"order_1","order_amount":500.00},"payment":{"payment_status":"` + status + `","payment_amount":500}}}`)
}

func TestParseWebhook(t *testing.T) {
	now := time.Unix(1_750_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)

	t.Run("valid paid", func(t *testing.T) {
		body := paymentBody("SUCCESS")

		hook, err := webhookClient(now).ParseWebhook(Sign(testSecret, ts, body), ts, body)

		require.NoError(t, err)
		assert.Equal(t, "order_1", hook.OrderID)
		assert.Equal(t, models.GatewayOrderPaid, hook.Status)
		assert.Equal(t, int64(500), hook.Amount)
	})

	t.Run("failed payment", func(t *testing.T) {
		body := paymentBody("FAILED")

		hook, err := webhookClient(now).ParseWebhook(Sign(testSecret, ts, body), ts, body)

		require.NoError(t, err)
		assert.Equal(t, models.GatewayOrderFailed, hook.Status)
	})

	t.Run("millisecond timestamp", func(t *testing.T) {
		body := paymentBody("SUCCESS")
		msTs := strconv.FormatInt(now.UnixMilli(), 10)

		_, err := webhookClient(now).ParseWebhook(Sign(testSecret, msTs, body), msTs, body)
		require.NoError(t, err)
	})

	t.Run("tampered body", func(t *testing.T) {
		sig := Sign(testSecret, ts, paymentBody("FAILED"))

		_, err := webhookClient(now).ParseWebhook(sig, ts, paymentBody("SUCCESS"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		body := paymentBody("SUCCESS")

		_, err := webhookClient(now).ParseWebhook(Sign("other", ts, body), ts, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("replayed outside window", func(t *testing.T) {
		body := paymentBody("SUCCESS")
		old := strconv.FormatInt(now.Add(-MaxWebhookSkew-time.Second).Unix(), 10)

		_, err := webhookClient(now).ParseWebhook(Sign(testSecret, old, body), old, body)
		assert.ErrorIs(t, err, ErrStaleWebhook)
	})

	t.Run("no secret configured", func(t *testing.T) {
		body := paymentBody("SUCCESS")
		c := webhookClient(now)
		c.WebhookSecret = ""

		_, err := c.ParseWebhook(Sign("", ts, body), ts, body)
		assert.Error(t, err)
	})
}
