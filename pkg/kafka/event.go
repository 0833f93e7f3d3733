package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is bumped whenever the envelope changes incompatibly.
const SchemaVersion = 1

// Event is the JSON envelope of every message this service publishes. Key
// is also the Kafka message key, so all events for one record land on the
// same partition in order.
type Event struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Key           string            `json:"key"`
	Source        string            `json:"source"`
	SchemaVersion int               `json:"schema_version"`
	OccurredAt    time.Time         `json:"occurred_at"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Data          json.RawMessage   `json:"data"`
}

// NewEvent encodes data into a fresh envelope.
func NewEvent(eventType, key, source string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Key:           key,
		Source:        source,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Data:          raw,
	}, nil
}

// WithCorrelationID ties the event to the request that caused it.
func (e *Event) WithCorrelationID(id string) *Event {
	e.CorrelationID = id
	return e
}

// WithAttribute sets a free-form attribute. Empty values are skipped.
func (e *Event) WithAttribute(key, value string) *Event {
	if value == "" {
		return e
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]string, 1)
	}
	e.Attributes[key] = value
	return e
}

// DecodeData unmarshals the payload into target.
func (e *Event) DecodeData(target any) error {
	if err := json.Unmarshal(e.Data, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
