package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventEnvelope wraps an order event. Sequence orders events within PartitionKey,
// which is always the order id.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	Sequence      *int64    `json:"sequence,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

// EnvelopeMetadata is the request context copied onto an event.
type EnvelopeMetadata struct {
	CorrelationID string
	CausationID   string
}

func newEnvelope[T any](name, orderID string, seq int64, meta EnvelopeMetadata, payload T) EventEnvelope[T] {
	correlationID := meta.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     name,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		CausationID:   meta.CausationID,
		Producer:      producerName,
		PartitionKey:  orderID,
		Sequence:      &seq,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

// Validate checks that a received envelope is the named event at the given version
// and can be ordered within its order.
func (e EventEnvelope[T]) Validate(name string, version int) error {
	switch {
	case e.EventName != name:
		return fmt.Errorf("event %q, want %q", e.EventName, name)
	case e.EventVersion != version:
		return fmt.Errorf("%s version %d, want %d", name, e.EventVersion, version)
	case e.PartitionKey == "":
		return errors.New(name + ": missing order id partition key")
	case e.Sequence == nil:
		return errors.New(name + ": missing sequence")
	}
	return nil
}
