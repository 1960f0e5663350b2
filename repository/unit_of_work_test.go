package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillarena/events"
	"skillarena/models"
	"skillarena/repository/testutil"
)

func TestUnitOfWork_EventsFollowCommit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	var received []events.Event
	bus.SubscribeAll(func(ctx context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	account := testutil.SeedAccount(t, testDB.DB, "gina", models.VerificationLevelPlayer, models.RoleUser, 100)

	t.Run("rollback discards writes and events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		_, err := uow.AccountRepository().AddBalance(ctx, account.ID, 50)
		require.NoError(t, err)
		uow.EventBus().Publish(events.BalanceChangeEvent{UserID: account.ID, OldBalance: 100, NewBalance: 150})

		require.NoError(t, uow.Rollback())

		reloaded, err := NewAccountRepository(testDB.DB).GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), reloaded.WalletBalance)

		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		assert.Empty(t, received)
		mu.Unlock()
	})

	t.Run("commit persists writes and delivers events", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		_, err := uow.AccountRepository().AddBalance(ctx, account.ID, 50)
		require.NoError(t, err)
		uow.EventBus().Publish(events.BalanceChangeEvent{UserID: account.ID, OldBalance: 100, NewBalance: 150})

		require.NoError(t, uow.Commit())

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(received) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("repositories require begin", func(t *testing.T) {
		uow := factory.Create()
		assert.Panics(t, func() { uow.AccountRepository() })
	})
}
