package outbox

import (
	"time"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// Record is one event waiting in the outbox table. It is written in the same
// transaction as the entity change it announces.
type Record struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Topic       string     `gorm:"type:varchar(128);not null"`
	EventType   string     `gorm:"type:varchar(64);not null"`
	Payload     string     `gorm:"type:text;not null"`
	EventTime   time.Time  `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	ProcessedAt *time.Time `gorm:"index"`
	RetryCount  int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	GaveUp      bool       `gorm:"not null;default:false"`
}

func (Record) TableName() string { return "outbox_events" }

func recordFromMessage(m Message) Record {
	return Record{
		Topic:     m.Topic,
		EventType: m.Event.Type,
		Payload:   string(m.Event.Payload),
		EventTime: m.Event.Timestamp,
	}
}

// event rebuilds the envelope exactly as it was created, so the relay
// publishes the same eventTime and therefore the same idempotency key.
func (r *Record) event() *pubsub.Event {
	return &pubsub.Event{
		Type:      r.EventType,
		Payload:   []byte(r.Payload),
		Timestamp: r.EventTime.UTC(),
	}
}
