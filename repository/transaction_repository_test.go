package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/models"
	"skillarena/repository/testutil"
	"skillarena/service"
)

func strPtr(s string) *string { return &s }

func TestTransactionRepository_Create(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.SeedAccount(t, testDB.DB, "dave", models.VerificationLevelPlayer, models.RoleUser, 0)

	t.Run("duplicate utr is a conflict", func(t *testing.T) {
		first := testutil.NewTestTransaction(0, account.ID, models.TransactionTypeDeposit, 100)
		first.UTRID = strPtr("UTR123456")
		require.NoError(t, repo.Create(ctx, first))
		assert.NotZero(t, first.ID)

		second := testutil.NewTestTransaction(0, account.ID, models.TransactionTypeDeposit, 200)
		second.UTRID = strPtr("UTR123456")
		assert.ErrorIs(t, repo.Create(ctx, second), service.ErrConflict)
	})

	t.Run("second pending withdrawal is a conflict", func(t *testing.T) {
		first := testutil.NewTestTransaction(0, account.ID, models.TransactionTypeWithdrawal, 150)
		require.NoError(t, repo.Create(ctx, first))

		pending, err := repo.HasPendingWithdrawal(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, pending)

		second := testutil.NewTestTransaction(0, account.ID, models.TransactionTypeWithdrawal, 150)
		assert.ErrorIs(t, repo.Create(ctx, second), service.ErrConflict)
	})
}

func TestTransactionRepository_Settle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.SeedAccount(t, testDB.DB, "erin", models.VerificationLevelPlayer, models.RoleUser, 0)
	admin := testutil.SeedAccount(t, testDB.DB, "root", models.VerificationLevelHost, models.RoleAdmin, 0)

	tx := testutil.NewTestTransaction(0, account.ID, models.TransactionTypeDeposit, 500)
	require.NoError(t, repo.Create(ctx, tx))

	settled, err := repo.Settle(ctx, models.Settlement{
		TransactionID: tx.ID,
		Status:        models.StatusApproved,
		Notes:         strPtr("matched bank statement"),
		ProcessedBy:   &admin.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, models.StatusApproved, settled.Status)
	assert.NotNil(t, settled.ProcessedAt)
	assert.Equal(t, admin.ID, *settled.ProcessedBy)

	again, err := repo.Settle(ctx, models.Settlement{TransactionID: tx.ID, Status: models.StatusRejected})
	require.NoError(t, err)
	assert.Nil(t, again, "a terminal transaction must not settle twice")

	reloaded, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reloaded.Status)
}

func TestTransactionRepository_List(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	alice := testutil.SeedAccount(t, testDB.DB, "alice", models.VerificationLevelPlayer, models.RoleUser, 0)
	bob := testutil.SeedAccount(t, testDB.DB, "bob", models.VerificationLevelPlayer, models.RoleUser, 0)

	for _, tx := range []*models.Transaction{
		testutil.NewTestTransaction(0, alice.ID, models.TransactionTypeDeposit, 100),
		testutil.NewTestTransaction(0, alice.ID, models.TransactionTypeWithdrawal, 100),
		testutil.NewTestTransaction(0, bob.ID, models.TransactionTypeDeposit, 300),
	} {
		require.NoError(t, repo.Create(ctx, tx))
	}

	deposit := models.TransactionTypeDeposit
	deposits, err := repo.List(ctx, models.TransactionFilter{Type: &deposit})
	require.NoError(t, err)
	assert.Len(t, deposits, 2)

	mine, err := repo.List(ctx, models.TransactionFilter{UserID: &alice.ID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	count, err := repo.CountPending(ctx, models.TransactionTypeDeposit)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
