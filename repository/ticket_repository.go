package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
)

const ticketColumns = `id, user_id, email, subject, message, status, admin_response, created_at, updated_at`

// TicketRepository implements the TicketRepository interface
type TicketRepository struct {
	q queryable
}

// NewTicketRepository creates a new support ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepositoryWithTx creates a new support ticket repository with a transaction
func newTicketRepositoryWithTx(tx queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

func scanTicket(row pgx.Row) (*models.SupportTicket, error) {
	var t models.SupportTicket
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Email,
		&t.Subject,
		&t.Message,
		&t.Status,
		&t.AdminResponse,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*models.SupportTicket, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// Create inserts a new ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	query := `
		INSERT INTO support_tickets (user_id, email, subject, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Email,
		ticket.Subject,
		ticket.Message,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create support ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by its ID
func (r *TicketRepository) GetByID(ctx context.Context, id models.TicketID) (*models.SupportTicket, error) {
	t, err := scanTicket(r.q.QueryRow(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	return t, nil
}

// Update persists a ticket's status and admin response
func (r *TicketRepository) Update(ctx context.Context, ticket *models.SupportTicket) error {
	query := `
		UPDATE support_tickets
		SET status = $1, admin_response = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query, ticket.Status, ticket.AdminResponse, ticket.ID).Scan(&ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ticket %d not found", ticket.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.ID, err)
	}

	return nil
}

// List returns tickets, newest first, optionally filtered by status
func (r *TicketRepository) List(ctx context.Context, status *models.TicketStatus) ([]*models.SupportTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM support_tickets
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
	`

	tickets, err := r.queryTickets(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// ListByUser returns the tickets a user filed
func (r *TicketRepository) ListByUser(ctx context.Context, userID models.AccountID) ([]*models.SupportTicket, error) {
	tickets, err := r.queryTickets(ctx,
		`SELECT `+ticketColumns+` FROM support_tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for account %d: %w", userID, err)
	}
	return tickets, nil
}

// CountByStatus returns the number of tickets in a status
func (r *TicketRepository) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	var count int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM support_tickets WHERE status = $1`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s tickets: %w", status, err)
	}
	return count, nil
}
