package handlers

import (
	"github.com/gofiber/fiber/v2"

	"skillarena/middleware"
	"skillarena/models"
)

type createTicketRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type updateTicketRequest struct {
	Status   string  `json:"status" validate:"required"`
	Response *string `json:"response"`
}

// CreateTicket is open to guests; a signed-in caller is attached to the ticket
func (h *Handler) CreateTicket(c *fiber.Ctx) error {
	var req createTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var callerID *models.AccountID
	if id, ok := middleware.CallerID(c); ok {
		callerID = &id
	}

	ticket, err := h.svc.Support.CreateTicket(c.UserContext(), callerID, req.Email, req.Subject, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (h *Handler) ListMyTickets(c *fiber.Ctx) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}

	tickets, err := h.svc.Support.ListMyTickets(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(tickets)
}

func (h *Handler) ListTickets(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}

	var status *models.TicketStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TicketStatus(raw)
		status = &s
	}

	tickets, err := h.svc.Support.ListTickets(c.UserContext(), adminID, status)
	if err != nil {
		return err
	}
	return c.JSON(tickets)
}

func (h *Handler) UpdateTicketStatus(c *fiber.Ctx) error {
	adminID, err := caller(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.svc.Support.UpdateTicketStatus(c.UserContext(), adminID, models.TicketID(ticketID), models.TicketStatus(req.Status), req.Response)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}
