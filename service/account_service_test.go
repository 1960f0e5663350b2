package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skillarena/events"
	"skillarena/models"
)

func TestAccountService_RegisterAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("starts at pending_email", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByEmail", ctx, "sam@example.com").Return(nil, nil)
		uow.Accounts.On("GetByUsername", ctx, "sam").Return(nil, nil)
		uow.Accounts.On("Create", ctx, mock.AnythingOfType("*models.Account")).Return(nil)
		uow.On("Commit").Return(nil)

		account, err := svc.RegisterAccount(ctx, "sam@example.com", " sam ")

		require.NoError(t, err)
		assert.Equal(t, models.VerificationLevelPendingEmail, account.VerificationLevel)
		assert.Equal(t, models.RoleUser, account.Role)
		assert.Zero(t, account.WalletBalance)
		assert.Len(t, uow.Events.OfType(events.EventTypeAccountCreated), 1)
	})

	t.Run("duplicate email", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByEmail", ctx, "sam@example.com").Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)

		_, err := svc.RegisterAccount(ctx, "sam@example.com", "sam")
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("short username", func(t *testing.T) {
		svc := NewAccountService(new(MockUnitOfWorkFactory))

		_, err := svc.RegisterAccount(ctx, "sam@example.com", "sa")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("bad email", func(t *testing.T) {
		svc := NewAccountService(new(MockUnitOfWorkFactory))

		_, err := svc.RegisterAccount(ctx, "sam", "sammy")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAccountService_SetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin grants role", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByID", ctx, models.AccountID(99)).Return(testAdmin(99), nil)
		uow.Accounts.On("GetByID", ctx, models.AccountID(1)).Return(testAccount(1, models.VerificationLevelPlayer, 0), nil)
		uow.Accounts.On("UpdateRole", ctx, models.AccountID(1), models.RoleAdmin).Return(nil)
		uow.On("Commit").Return(nil)

		account, err := svc.SetRole(ctx, 99, 1, models.RoleAdmin)

		require.NoError(t, err)
		assert.True(t, account.IsAdmin())
	})

	t.Run("cannot demote self", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByID", ctx, models.AccountID(99)).Return(testAdmin(99), nil)

		_, err := svc.SetRole(ctx, 99, 99, models.RoleUser)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown caller", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByID", ctx, models.AccountID(42)).Return(nil, nil)

		_, err := svc.SetRole(ctx, 42, 1, models.RoleAdmin)
		assert.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc := NewAccountService(new(MockUnitOfWorkFactory))

		_, err := svc.SetRole(ctx, 99, 1, models.Role("owner"))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAccountService_PromoteToAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes by email", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByEmail", ctx, "ops@example.com").Return(testAccount(3, models.VerificationLevelUnverified, 0), nil)
		uow.Accounts.On("UpdateRole", ctx, models.AccountID(3), models.RoleAdmin).Return(nil)
		uow.On("Commit").Return(nil)

		account, err := svc.PromoteToAdmin(ctx, "ops@example.com")

		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, account.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		factory, uow := setupUoW(ctx)
		svc := NewAccountService(factory)
		uow.Accounts.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := svc.PromoteToAdmin(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
