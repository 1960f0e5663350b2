package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
	"skillarena/service"
)

const transactionColumns = `
	id, user_id, type, method, amount, status, utr_id, unique_amount, destination,
	match_id, admin_notes, processed_by, processed_at, created_at`

const defaultTransactionLimit = 50

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Method,
		&t.Amount,
		&t.Status,
		&t.UTRID,
		&t.UniqueAmount,
		&t.Destination,
		&t.MatchID,
		&t.AdminNotes,
		&t.ProcessedBy,
		&t.ProcessedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a transaction. Duplicate UTR ids and a second pending
// withdrawal surface as conflict errors.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions
		(user_id, type, method, amount, status, utr_id, unique_amount, destination, match_id, processed_by, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.UserID,
		tx.Type,
		tx.Method,
		tx.Amount,
		tx.Status,
		tx.UTRID,
		tx.UniqueAmount,
		tx.Destination,
		tx.MatchID,
		tx.ProcessedBy,
		tx.ProcessedAt,
	).Scan(&tx.ID, &tx.CreatedAt)

	switch {
	case isUniqueViolation(err, "idx_transactions_utr_id"):
		return service.NewConflictError("this UTR has already been submitted")
	case isUniqueViolation(err, "idx_transactions_one_pending_withdrawal"):
		return service.NewConflictError("a withdrawal is already pending review")
	case err != nil:
		return fmt.Errorf("failed to create %s transaction for account %d: %w", tx.Type, tx.UserID, err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id models.TransactionID) (*models.Transaction, error) {
	tx, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return tx, nil
}

// GetByUTRID retrieves a transaction by its UTR or gateway order id
func (r *TransactionRepository) GetByUTRID(ctx context.Context, utrID string) (*models.Transaction, error) {
	tx, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE utr_id = $1`, utrID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by utr %q: %w", utrID, err)
	}
	return tx, nil
}

// HasPendingWithdrawal reports whether the user has a withdrawal awaiting review
func (r *TransactionRepository) HasPendingWithdrawal(ctx context.Context, userID models.AccountID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND type = 'withdrawal' AND status = 'pending'
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending withdrawal for account %d: %w", userID, err)
	}
	return exists, nil
}

// Settle moves a pending transaction to a terminal status. Only one caller
// can win the status='pending' guard; everyone else gets nil.
func (r *TransactionRepository) Settle(ctx context.Context, settlement models.Settlement) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $1, admin_notes = COALESCE($2, admin_notes), processed_by = $3, processed_at = NOW()
		WHERE id = $4 AND status = 'pending'
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(r.q.QueryRow(ctx, query,
		settlement.Status,
		settlement.Notes,
		settlement.ProcessedBy,
		settlement.TransactionID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle transaction %d: %w", settlement.TransactionID, err)
	}
	return tx, nil
}

// List returns transactions matching the filter, newest first
func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Type != nil {
		add("type = $%d", *filter.Type)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Method != nil {
		add("method = $%d", *filter.Method)
	}
	if filter.CreatedBefore != nil {
		add("created_at < $%d", *filter.CreatedBefore)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// CountPending returns the number of pending transactions of a type
func (r *TransactionRepository) CountPending(ctx context.Context, txType models.TransactionType) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE type = $1 AND status = 'pending'`, txType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending %s transactions: %w", txType, err)
	}
	return count, nil
}
