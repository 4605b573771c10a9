package pubsub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Event is the envelope published for every committed domain fact.
// Events are immutable once published.
type Event struct {
	Type      string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"eventTime"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// IdempotencyKey derives a deterministic key from the event content. Two
// deliveries of the same published event yield the same key.
func (e *Event) IdempotencyKey() string {
	h := sha256.New()
	h.Write([]byte(e.Type))
	h.Write([]byte{0})
	h.Write(e.Payload)
	h.Write([]byte{0})
	h.Write([]byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

func encodeEvent(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher appends events to a topic. Publish returns once the backbone has
// acknowledged the event or the attempt failed. Events are not keyed, so no
// ordering holds across events about the same entity.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// Handler performs the side effect for one delivered event. Returning an
// error leaves the event uncommitted so the backbone redelivers it.
type Handler func(ctx context.Context, event *Event) error

// Subscriber is one consumer group member. Handlers are registered before
// Start; each message is committed only after its handler succeeded.
type Subscriber interface {
	Handle(topic string, handler Handler)
	Start(ctx context.Context) error
	Close() error
}
