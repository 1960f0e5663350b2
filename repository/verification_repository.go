package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
	"skillarena/service"
)

const verificationColumns = `
	id, user_id, requested_level, status, full_name, date_of_birth, document_key,
	rejection_reason, reviewed_by, created_at, reviewed_at`

// VerificationRepository implements the VerificationRepository interface
type VerificationRepository struct {
	q queryable
}

// NewVerificationRepository creates a new verification request repository
func NewVerificationRepository(db *database.DB) *VerificationRepository {
	return &VerificationRepository{q: db.Pool}
}

// newVerificationRepositoryWithTx creates a new verification request repository with a transaction
func newVerificationRepositoryWithTx(tx queryable) *VerificationRepository {
	return &VerificationRepository{q: tx}
}

func scanVerification(row pgx.Row) (*models.VerificationRequest, error) {
	var v models.VerificationRequest
	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.RequestedLevel,
		&v.Status,
		&v.FullName,
		&v.DateOfBirth,
		&v.DocumentKey,
		&v.RejectionReason,
		&v.ReviewedBy,
		&v.CreatedAt,
		&v.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VerificationRepository) getOne(ctx context.Context, query string, args ...any) (*models.VerificationRequest, error) {
	v, err := scanVerification(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// Create inserts a new request. A second pending request for the same user is a conflict.
func (r *VerificationRepository) Create(ctx context.Context, req *models.VerificationRequest) error {
	query := `
		INSERT INTO verification_requests (user_id, requested_level, status, full_name, date_of_birth, document_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		req.UserID,
		req.RequestedLevel,
		req.Status,
		req.FullName,
		req.DateOfBirth,
		req.DocumentKey,
	).Scan(&req.ID, &req.CreatedAt)

	if isUniqueViolation(err, "idx_verification_one_pending") {
		return service.NewConflictError("a verification request is already pending")
	}
	if err != nil {
		return fmt.Errorf("failed to create verification request for account %d: %w", req.UserID, err)
	}

	return nil
}

// GetByID retrieves a request by its ID
func (r *VerificationRepository) GetByID(ctx context.Context, id models.VerificationRequestID) (*models.VerificationRequest, error) {
	v, err := r.getOne(ctx, `SELECT `+verificationColumns+` FROM verification_requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get verification request %d: %w", id, err)
	}
	return v, nil
}

// GetPendingByUser returns the user's pending request, if any
func (r *VerificationRepository) GetPendingByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error) {
	v, err := r.getOne(ctx,
		`SELECT `+verificationColumns+` FROM verification_requests WHERE user_id = $1 AND status = 'pending'`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending verification for account %d: %w", userID, err)
	}
	return v, nil
}

// GetLatestByUser returns the user's most recent request, if any
func (r *VerificationRepository) GetLatestByUser(ctx context.Context, userID models.AccountID) (*models.VerificationRequest, error) {
	v, err := r.getOne(ctx,
		`SELECT `+verificationColumns+` FROM verification_requests WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest verification for account %d: %w", userID, err)
	}
	return v, nil
}

// Resolve moves a pending request to its terminal status and fills in the review fields
func (r *VerificationRepository) Resolve(ctx context.Context, req *models.VerificationRequest) (bool, error) {
	query := `
		UPDATE verification_requests
		SET status = $1, rejection_reason = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $4 AND status = 'pending'
		RETURNING reviewed_at
	`

	err := r.q.QueryRow(ctx, query, req.Status, req.RejectionReason, req.ReviewedBy, req.ID).Scan(&req.ReviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve verification request %d: %w", req.ID, err)
	}
	return true, nil
}

// ListByStatus returns requests in a status, oldest first
func (r *VerificationRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.VerificationRequest, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+verificationColumns+` FROM verification_requests WHERE status = $1 ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s verification requests: %w", status, err)
	}
	defer rows.Close()

	var reqs []*models.VerificationRequest
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification request: %w", err)
		}
		reqs = append(reqs, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification requests: %w", err)
	}

	return reqs, nil
}
