package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skillarena/models"
)

func TestTransactionalBus_FlushDeliversToSubscribers(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          42,
		OldBalance:      200,
		NewBalance:      700,
		TransactionType: models.TransactionTypeDeposit,
		ChangeAmount:    500,
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestTransactionalBus_MultipleEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(3)
	received := make(map[models.AccountID]bool)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		received[event.(BalanceChangeEvent).UserID] = true
	})

	for _, id := range []models.AccountID{1, 2, 3} {
		transactionalBus.Publish(BalanceChangeEvent{UserID: id, ChangeAmount: 100})
	}

	assert.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 3)
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeTransactionSettled, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(TransactionSettledEvent{TransactionID: 7, Status: models.StatusApproved})
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_SubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewBus()

	types := make(chan EventType, 2)
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		types <- event.Type()
	})

	bus.Emit(context.Background(), TicketCreatedEvent{TicketID: 1})
	bus.Emit(context.Background(), MatchStateChangeEvent{MatchID: 2})

	got := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case et := <-types:
			got[et] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	assert.True(t, got[EventTypeTicketCreated])
	assert.True(t, got[EventTypeMatchStateChange])
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeTicketCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeTicketCreated, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), TicketCreatedEvent{TicketID: 1})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler did not run")
	}
}
