package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"skillarena/database"
	"skillarena/models"
)

// NewTestAccount builds an in-memory account with sensible defaults
func NewTestAccount(id models.AccountID, username string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:                id,
		Email:             username + "@example.com",
		Username:          username,
		Role:              models.RoleUser,
		VerificationLevel: models.VerificationLevelPlayer,
		WalletBalance:     1000,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NewTestAccountWithBalance builds an account with a specific balance
func NewTestAccountWithBalance(id models.AccountID, username string, balance int64) *models.Account {
	account := NewTestAccount(id, username)
	account.WalletBalance = balance
	return account
}

// NewTestMatch builds an open match hosted by hostID
func NewTestMatch(id models.MatchID, hostID models.AccountID, entryFee int64) *models.Match {
	now := time.Now()
	return &models.Match{
		ID:        id,
		HostID:    hostID,
		GameID:    1,
		Title:     fmt.Sprintf("Match %d", id),
		EntryFee:  entryFee,
		StartTime: now.Add(time.Hour),
		Status:    models.MatchStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestTransaction builds a pending transaction
func NewTestTransaction(id models.TransactionID, userID models.AccountID, txType models.TransactionType, amount int64) *models.Transaction {
	return &models.Transaction{
		ID:        id,
		UserID:    userID,
		Type:      txType,
		Method:    models.TransactionMethodManual,
		Amount:    amount,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
}

// SeedAccount inserts an account with the given level, role and balance in one transaction
func SeedAccount(t *testing.T, db *database.DB, username string, level models.VerificationLevel, role models.Role, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		Email:             username + "@example.com",
		Username:          username,
		Role:              role,
		VerificationLevel: level,
		WalletBalance:     balance,
	}

	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		return tx.QueryRow(context.Background(), `
			INSERT INTO accounts (email, username, role, verification_level, wallet_balance)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`,
			account.Email, account.Username, account.Role, account.VerificationLevel, account.WalletBalance,
		).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	})
	require.NoError(t, err)

	return account
}

// SeedGame inserts an active catalog game
func SeedGame(t *testing.T, db *database.DB, name string) *models.Game {
	t.Helper()

	game := &models.Game{Name: name, Slug: fmt.Sprintf("%s-%d", name, time.Now().UnixNano()), IsActive: true}
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		return tx.QueryRow(context.Background(),
			`INSERT INTO games (name, slug, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`,
			game.Name, game.Slug, game.IsActive,
		).Scan(&game.ID, &game.CreatedAt)
	})
	require.NoError(t, err)

	return game
}
