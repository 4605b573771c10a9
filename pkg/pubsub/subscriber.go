package pubsub

import (
	"context"
	"time"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
)

// dispatch runs the handler for one decoded event with a topic-scoped logger
// in the context.
func dispatch(ctx context.Context, topic string, h Handler, e *Event) error {
	l := pkglog.L().With().
		Str(pkglog.FieldTopic, topic).
		Str(pkglog.FieldEventType, e.Type).
		Logger()

	if err := h(pkglog.WithLogger(ctx, l), e); err != nil {
		l.Error().Err(err).Msg("event handler failed; event left uncommitted for redelivery")
		metrics.EventsConsumed.WithLabelValues(topic, metrics.StatusFailed).Inc()
		return err
	}

	metrics.EventsConsumed.WithLabelValues(topic, metrics.StatusSuccess).Inc()
	return nil
}

// skipUndecodable logs and counts a message that can never be handled.
// It is committed so a poison message does not block its partition.
func skipUndecodable(topic string, err error) {
	l := pkglog.L()
	l.Error().Err(err).Str(pkglog.FieldTopic, topic).Msg("failed to decode event; skipping")
	metrics.EventsConsumed.WithLabelValues(topic, metrics.StatusSkipped).Inc()
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
