package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"skillarena/database"
	"skillarena/models"
	"skillarena/service"
)

const accountColumns = `
	id, email, username, role, verification_level, wallet_balance,
	total_matches, total_wins, total_earnings, full_name, date_of_birth,
	created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.Role,
		&a.VerificationLevel,
		&a.WalletBalance,
		&a.TotalMatches,
		&a.TotalWins,
		&a.TotalEarnings,
		&a.FullName,
		&a.DateOfBirth,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id models.AccountID) (*models.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// GetByIDForUpdate retrieves an account and locks its row
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id models.AccountID) (*models.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", id, err)
	}
	return account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username %q: %w", username, err)
	}
	return account, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (email, username, role, verification_level)
		VALUES ($1, $2, $3, $4)
		RETURNING wallet_balance, id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.Email,
		account.Username,
		account.Role,
		account.VerificationLevel,
	).Scan(&account.WalletBalance, &account.ID, &account.CreatedAt, &account.UpdatedAt)

	if isUniqueViolation(err, "") {
		return service.NewConflictError("an account with that email or username already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create account %q: %w", account.Username, err)
	}

	return nil
}

// AddBalance credits a wallet and returns the new balance
func (r *AccountRepository) AddBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error) {
	query := `
		UPDATE accounts
		SET wallet_balance = wallet_balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING wallet_balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("account %d not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for account %d: %w", id, err)
	}

	return balance, nil
}

// DeductBalance debits a wallet only if it holds enough funds
func (r *AccountRepository) DeductBalance(ctx context.Context, id models.AccountID, amount int64) (int64, error) {
	query := `
		UPDATE accounts
		SET wallet_balance = wallet_balance - $1, updated_at = NOW()
		WHERE id = $2 AND wallet_balance >= $1
		RETURNING wallet_balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, service.ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for account %d: %w", id, err)
	}

	return balance, nil
}

// UpdateVerificationLevel sets the account's verification level
func (r *AccountRepository) UpdateVerificationLevel(ctx context.Context, id models.AccountID, level models.VerificationLevel) error {
	return r.exec(ctx, "update verification level",
		`UPDATE accounts SET verification_level = $1, updated_at = NOW() WHERE id = $2`, level, id)
}

// UpdateProfile stores the identity captured during player verification
func (r *AccountRepository) UpdateProfile(ctx context.Context, id models.AccountID, fullName string, dateOfBirth time.Time) error {
	return r.exec(ctx, "update profile",
		`UPDATE accounts SET full_name = $1, date_of_birth = $2, updated_at = NOW() WHERE id = $3`, fullName, dateOfBirth, id)
}

// UpdateRole sets the account's role
func (r *AccountRepository) UpdateRole(ctx context.Context, id models.AccountID, role models.Role) error {
	return r.exec(ctx, "update role",
		`UPDATE accounts SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
}

// ApplyMatchOutcome bumps match statistics for one player
func (r *AccountRepository) ApplyMatchOutcome(ctx context.Context, outcome models.MatchOutcome) error {
	wins := 0
	if outcome.Won {
		wins = 1
	}
	query := `
		UPDATE accounts
		SET total_matches = total_matches + 1,
		    total_wins = total_wins + $1,
		    total_earnings = total_earnings + $2,
		    updated_at = NOW()
		WHERE id = $3
	`
	return r.exec(ctx, "apply match outcome", query, wins, outcome.Earnings, outcome.AccountID)
}

// GetLiability returns the number of accounts and the sum of all wallet balances
func (r *AccountRepository) GetLiability(ctx context.Context) (int, int64, error) {
	var count int
	var total int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(wallet_balance), 0) FROM accounts`).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get wallet liability: %w", err)
	}
	return count, total, nil
}

func (r *AccountRepository) exec(ctx context.Context, op string, query string, args ...any) error {
	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: account not found", op)
	}
	return nil
}
