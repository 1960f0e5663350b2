package service

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/models"
)

type supportService struct {
	uowFactory UnitOfWorkFactory
}

// NewSupportService creates a new support ticket service
func NewSupportService(uowFactory UnitOfWorkFactory) SupportService {
	return &supportService{
		uowFactory: uowFactory,
	}
}

func (s *supportService) CreateTicket(ctx context.Context, callerID *models.AccountID, email, subject, message string) (*models.SupportTicket, error) {
	email = strings.TrimSpace(email)
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	if !validEmail(email) {
		return nil, NewValidationError("a valid email address is required")
	}
	if subject == "" {
		return nil, NewValidationError("subject is required")
	}
	if message == "" {
		return nil, NewValidationError("message is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if callerID != nil {
		if _, err := getAccount(ctx, uow, *callerID); err != nil {
			return nil, err
		}
	}

	ticket := &models.SupportTicket{
		UserID:  callerID,
		Email:   email,
		Subject: subject,
		Message: message,
		Status:  models.TicketStatusOpen,
	}
	if err := uow.TicketRepository().Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	uow.EventBus().Publish(events.TicketCreatedEvent{
		TicketID: ticket.ID,
		Email:    email,
		Subject:  subject,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"ticketId": ticket.ID,
		"guest":    callerID == nil,
	}).Info("Support ticket created")

	return ticket, nil
}

func (s *supportService) UpdateTicketStatus(ctx context.Context, adminID models.AccountID, ticketID models.TicketID, status models.TicketStatus, response *string) (*models.SupportTicket, error) {
	if !status.IsValid() {
		return nil, NewValidationError("unknown ticket status %q", status)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	ticket, err := uow.TicketRepository().GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, NewNotFoundError("ticket %d not found", ticketID)
	}

	// Re-sending the current status is allowed when it only adds a response
	sameStatusReply := status == ticket.Status && response != nil && ticket.Status != models.TicketStatusClosed
	if !ticket.Status.CanAdvanceTo(status) && !sameStatusReply {
		return nil, NewValidationError("cannot move ticket from %s to %s", ticket.Status, status)
	}

	ticket.Status = status
	if response != nil {
		trimmed := strings.TrimSpace(*response)
		ticket.AdminResponse = &trimmed
	}
	if err := uow.TicketRepository().Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ticket, nil
}

func (s *supportService) ListTickets(ctx context.Context, adminID models.AccountID, status *models.TicketStatus) ([]*models.SupportTicket, error) {
	if status != nil && !status.IsValid() {
		return nil, NewValidationError("unknown ticket status %q", *status)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	tickets, err := uow.TicketRepository().List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *supportService) ListMyTickets(ctx context.Context, userID models.AccountID) ([]*models.SupportTicket, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tickets, err := uow.TicketRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}
