package infrastructure

import (
	"fmt"

	"skillarena/events"
)

// DomainEventStream is the JetStream stream that carries every forwarded event
const DomainEventStream = "skillarena_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange:         "wallet.balance_changed",
	events.EventTypeAccountCreated:        "accounts.created",
	events.EventTypeTransactionRequested:  "wallet.transaction.requested",
	events.EventTypeTransactionSettled:    "wallet.transaction.settled",
	events.EventTypeVerificationRequested: "verification.requested",
	events.EventTypeVerificationResolved:  "verification.resolved",
	events.EventTypeMatchStateChange:      "matches.state_changed",
	events.EventTypeTicketCreated:         "support.ticket.created",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(eventSubjects))
	for _, s := range eventSubjects {
		subjects = append(subjects, s)
	}
	return subjects
}
