package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}

	stats, err := h.svc.Admin.Dashboard(c.UserContext(), adminID)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
