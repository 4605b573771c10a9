// Package outbox couples a local transaction with the events it announces.
//
// In direct mode events are published after the transaction commits and a
// publish failure is logged and dropped; the write still succeeds. In outbox
// mode the events are stored in the same transaction and a Relay publishes
// them later, so a committed write is never left unannounced.
package outbox

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// Modes.
const (
	ModeDirect = "direct"
	ModeOutbox = "outbox"
)

const defaultPublishTimeout = 10 * time.Second

// Message is an event bound for a topic.
type Message struct {
	Topic string
	Event *pubsub.Event
}

// NewMessage builds a Message with a fresh event.
func NewMessage(topic, eventType string, payload interface{}) (Message, error) {
	e, err := pubsub.NewEvent(eventType, payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to build %s event: %w", eventType, err)
	}
	return Message{Topic: topic, Event: e}, nil
}

// Emitter runs a local mutation and announces its events.
type Emitter struct {
	db             *gorm.DB
	publisher      pubsub.Publisher
	mode           string
	publishTimeout time.Duration
}

// NewEmitter creates an Emitter. An empty mode means direct.
func NewEmitter(db *gorm.DB, publisher pubsub.Publisher, mode string) (*Emitter, error) {
	switch mode {
	case "":
		mode = ModeDirect
	case ModeDirect, ModeOutbox:
	default:
		return nil, fmt.Errorf("unsupported event delivery mode: %s", mode)
	}

	return &Emitter{
		db:             db,
		publisher:      publisher,
		mode:           mode,
		publishTimeout: defaultPublishTimeout,
	}, nil
}

// Mode returns the delivery mode.
func (e *Emitter) Mode() string {
	return e.mode
}

// Execute runs fn in a transaction. fn performs the mutation with tx and
// returns the events describing it. Nothing is published if fn or the commit
// fails. Once the commit succeeds Execute returns nil whatever happens to
// the events.
func (e *Emitter) Execute(ctx context.Context, fn func(tx *gorm.DB) ([]Message, error)) error {
	var msgs []Message

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := fn(tx)
		if err != nil {
			return err
		}
		if e.mode == ModeOutbox {
			if err := insert(tx, m); err != nil {
				return err
			}
		}
		msgs = m
		return nil
	})
	if err != nil {
		return err
	}

	if e.mode == ModeDirect {
		e.publish(ctx, msgs)
	}
	return nil
}

func (e *Emitter) publish(ctx context.Context, msgs []Message) {
	if len(msgs) == 0 {
		return
	}

	// The write is committed; the caller going away must not drop the event.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	defer cancel()

	l := pkglog.Ctx(ctx)
	for _, m := range msgs {
		if err := e.publisher.Publish(pctx, m.Topic, m.Event); err != nil {
			l.Error().Err(err).
				Str(pkglog.FieldTopic, m.Topic).
				Str(pkglog.FieldEventType, m.Event.Type).
				RawJSON("payload", m.Event.Payload).
				Msg("failed to publish event; committed change stands")
			continue
		}
		l.Debug().
			Str(pkglog.FieldTopic, m.Topic).
			Str(pkglog.FieldEventType, m.Event.Type).
			Msg("event published")
	}
}
