package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillarena/models"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user member admin"`
}

// RegisterAccount creates the account row for a freshly signed-up user
func (h *Handler) RegisterAccount(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.svc.Accounts.RegisterAccount(c.UserContext(), req.Email, req.Username)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *Handler) GetMe(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	account, err := h.svc.Accounts.GetAccount(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *Handler) ConfirmEmail(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	account, err := h.svc.Verification.ConfirmEmail(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *Handler) SetRole(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req setRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	account, err := h.svc.Accounts.SetRole(c.UserContext(), adminID, models.AccountID(userID), models.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(account)
}

func (h *Handler) ListGames(c *fiber.Ctx) error {
	games, err := h.svc.Games.ListGames(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(games)
}
