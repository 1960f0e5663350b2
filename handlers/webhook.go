package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderWebhookSignature = "x-webhook-signature"
	HeaderWebhookTimestamp = "x-webhook-timestamp"
)

// PaymentWebhook settles a gateway deposit from a signed notification.
// The signature covers the raw body, so it is passed through untouched.
func (h *Handler) PaymentWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)

	result, err := h.svc.Payments.HandleWebhook(
		c.UserContext(),
		c.Get(HeaderWebhookSignature),
		c.Get(HeaderWebhookTimestamp),
		body,
	)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"orderId":        result.Transaction.UTRID,
		"status":         result.Transaction.Status,
		"alreadySettled": result.AlreadySettled,
	})
}
