package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"skillarena/models"
)

const (
	HeaderUserID = "X-User-ID"
	callerKey    = "caller_id"
)

// RequireCaller rejects requests without a caller identity set by the gateway
func RequireCaller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := parseCaller(c)
		if err != nil || !ok {
			log.WithField("path", c.Path()).Debug("Request without caller identity")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through the gateway with auth context",
			})
		}

		c.Locals(callerKey, id)
		return c.Next()
	}
}

// OptionalCaller records the caller when the gateway supplied one
func OptionalCaller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := parseCaller(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid X-User-ID",
			})
		}
		if ok {
			c.Locals(callerKey, id)
		}
		return c.Next()
	}
}

// CallerID returns the caller stored by RequireCaller or OptionalCaller
func CallerID(c *fiber.Ctx) (models.AccountID, bool) {
	id, ok := c.Locals(callerKey).(models.AccountID)
	return id, ok
}

func parseCaller(c *fiber.Ctx) (models.AccountID, bool, error) {
	raw := c.Get(HeaderUserID)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false, fiber.ErrUnauthorized
	}
	return models.AccountID(n), true, nil
}
