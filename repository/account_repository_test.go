package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/models"
	"skillarena/repository/testutil"
	"skillarena/service"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := &models.Account{
		Email:             "Alice@Example.com",
		Username:          "alice",
		Role:              models.RoleUser,
		VerificationLevel: models.VerificationLevelPendingEmail,
	}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotZero(t, account.ID)
	assert.Equal(t, int64(0), account.WalletBalance)

	t.Run("lookup by email ignores case", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.ID, found.ID)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		err := repo.Create(ctx, &models.Account{
			Email:             "ALICE@example.com",
			Username:          "alice2",
			Role:              models.RoleUser,
			VerificationLevel: models.VerificationLevelPendingEmail,
		})
		assert.True(t, errors.Is(err, service.ErrConflict))
	})

	t.Run("missing account returns nil", func(t *testing.T) {
		found, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestAccountRepository_Balance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.SeedAccount(t, testDB.DB, "bob", models.VerificationLevelPlayer, models.RoleUser, 500)

	balance, err := repo.AddBalance(ctx, account.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)

	balance, err = repo.DeductBalance(ctx, account.ID, 700)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	_, err = repo.DeductBalance(ctx, account.ID, 51)
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), reloaded.WalletBalance)

	count, total, err := repo.GetLiability(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(50), total)
}

func TestAccountRepository_ApplyMatchOutcome(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.SeedAccount(t, testDB.DB, "carol", models.VerificationLevelPlayer, models.RoleUser, 0)

	require.NoError(t, repo.ApplyMatchOutcome(ctx, models.MatchOutcome{AccountID: account.ID, Won: true, Earnings: 180}))
	require.NoError(t, repo.ApplyMatchOutcome(ctx, models.MatchOutcome{AccountID: account.ID}))

	reloaded, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalMatches)
	assert.Equal(t, 1, reloaded.TotalWins)
	assert.Equal(t, int64(180), reloaded.TotalEarnings)
}
