package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"skillarena/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeAccountCreated        EventType = "account_created"
	EventTypeTransactionRequested  EventType = "transaction_requested"
	EventTypeTransactionSettled    EventType = "transaction_settled"
	EventTypeVerificationRequested EventType = "verification_requested"
	EventTypeVerificationResolved  EventType = "verification_resolved"
	EventTypeMatchStateChange      EventType = "match_state_change"
	EventTypeTicketCreated         EventType = "ticket_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	UserID          models.AccountID       `json:"userId"`
	OldBalance      int64                  `json:"oldBalance"`
	NewBalance      int64                  `json:"newBalance"`
	TransactionType models.TransactionType `json:"transactionType"`
	ChangeAmount    int64                  `json:"changeAmount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a new account registration
type AccountCreatedEvent struct {
	UserID   models.AccountID `json:"userId"`
	Email    string           `json:"email"`
	Username string           `json:"username"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// TransactionRequestedEvent is emitted when a deposit or withdrawal enters the review queue
type TransactionRequestedEvent struct {
	TransactionID models.TransactionID     `json:"transactionId"`
	UserID        models.AccountID         `json:"userId"`
	Username      string                   `json:"username"`
	TxType        models.TransactionType   `json:"type"`
	Method        models.TransactionMethod `json:"method"`
	Amount        int64                    `json:"amount"`
	UTRID         string                   `json:"utrId,omitempty"`
}

func (e TransactionRequestedEvent) Type() EventType {
	return EventTypeTransactionRequested
}

// TransactionSettledEvent is emitted when a pending transaction reaches a terminal status
type TransactionSettledEvent struct {
	TransactionID models.TransactionID   `json:"transactionId"`
	UserID        models.AccountID       `json:"userId"`
	TxType        models.TransactionType `json:"type"`
	Amount        int64                  `json:"amount"`
	Status        models.RequestStatus   `json:"status"`
	ProcessedBy   *models.AccountID      `json:"processedBy,omitempty"`
}

func (e TransactionSettledEvent) Type() EventType {
	return EventTypeTransactionSettled
}

// VerificationRequestedEvent is emitted when a user applies for the next level
type VerificationRequestedEvent struct {
	RequestID      models.VerificationRequestID `json:"requestId"`
	UserID         models.AccountID             `json:"userId"`
	Username       string                       `json:"username"`
	RequestedLevel models.VerificationLevel     `json:"requestedLevel"`
}

func (e VerificationRequestedEvent) Type() EventType {
	return EventTypeVerificationRequested
}

// VerificationResolvedEvent is emitted when an admin approves or rejects a request
type VerificationResolvedEvent struct {
	RequestID models.VerificationRequestID `json:"requestId"`
	UserID    models.AccountID             `json:"userId"`
	Status    models.RequestStatus         `json:"status"`
	NewLevel  models.VerificationLevel     `json:"newLevel"`
}

func (e VerificationResolvedEvent) Type() EventType {
	return EventTypeVerificationResolved
}

// MatchStateChangeEvent represents a match state transition
type MatchStateChangeEvent struct {
	MatchID  models.MatchID     `json:"matchId"`
	Title    string             `json:"title"`
	OldState models.MatchStatus `json:"oldState"`
	NewState models.MatchStatus `json:"newState"`
}

func (e MatchStateChangeEvent) Type() EventType {
	return EventTypeMatchStateChange
}

// TicketCreatedEvent is emitted when a support ticket is filed
type TicketCreatedEvent struct {
	TicketID models.TicketID `json:"ticketId"`
	Email    string          `json:"email"`
	Subject  string          `json:"subject"`
}

func (e TicketCreatedEvent) Type() EventType {
	return EventTypeTicketCreated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler that receives every event
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, handler)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type()])+len(b.all))
	handlers = append(handlers, b.handlers[event.Type()]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	// Subscribers outlive the request, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard is called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
