package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"skillarena/events"
	"skillarena/infrastructure/observability"
)

const sourceService = "skillarena"

// EventEnvelope wraps a domain event on the wire
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventForwarder republishes committed domain events to NATS
type NATSEventForwarder struct {
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	metrics       *observability.MetricsProvider
}

// NewNATSEventForwarder creates a new forwarder
func NewNATSEventForwarder(publisher MessagePublisher, subjectMapper *EventSubjectMapper) *NATSEventForwarder {
	return &NATSEventForwarder{
		publisher:     publisher,
		subjectMapper: subjectMapper,
	}
}

// WithMetrics counts forwarded events
func (f *NATSEventForwarder) WithMetrics(metrics *observability.MetricsProvider) *NATSEventForwarder {
	f.metrics = metrics
	return f
}

// Attach subscribes the forwarder to every event on the bus
func (f *NATSEventForwarder) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	})
}

// Forward publishes one event wrapped in an envelope
func (f *NATSEventForwarder) Forward(ctx context.Context, event events.Event) error {
	subject := f.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}
	f.metrics.RecordNATSMessagePublished(envelope.EventType)

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event to NATS")

	return nil
}
