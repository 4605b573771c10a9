package outbox

import (
	"context"
	"fmt"
	"time"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// RelayConfig configures the outbox relay.
type RelayConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	MaxRetries      int           `mapstructure:"max_retries"`
	CleanupAge      time.Duration `mapstructure:"cleanup_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DefaultRelayConfig returns the relay defaults.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval:    100 * time.Millisecond,
		BatchSize:       100,
		MaxRetries:      5,
		CleanupAge:      7 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Relay publishes outbox rows and marks them processed. Rows are delivered
// at least once: a crash between publish and mark republishes the row.
type Relay struct {
	store     *Store
	publisher pubsub.Publisher
	config    RelayConfig
	metrics   *metrics.OutboxMetrics
}

// NewRelay creates a relay. m may be nil.
func NewRelay(store *Store, publisher pubsub.Publisher, cfg RelayConfig, m *metrics.OutboxMetrics) *Relay {
	def := DefaultRelayConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.CleanupAge <= 0 {
		cfg.CleanupAge = def.CleanupAge
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	return &Relay{
		store:     store,
		publisher: publisher,
		config:    cfg,
		metrics:   m,
	}
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	l := pkglog.L()
	l.Info().
		Dur("poll_interval", r.config.PollInterval).
		Int("batch_size", r.config.BatchSize).
		Int("max_retries", r.config.MaxRetries).
		Msg("outbox relay started")

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("outbox relay stopped")
			return nil

		case <-pollTicker.C:
			r.updateGauges(ctx)
			if _, err := r.ProcessOnce(ctx); err != nil {
				l.Error().Err(err).Msg("failed to process outbox batch")
			}

		case <-cleanupTicker.C:
			deleted, err := r.store.Cleanup(ctx, r.config.CleanupAge)
			if err != nil {
				l.Error().Err(err).Msg("failed to clean up outbox")
			} else if r.metrics != nil && deleted > 0 {
				r.metrics.CleanupDeletedTotal.Add(float64(deleted))
			}
		}
	}
}

// ProcessOnce relays one batch and returns how many rows were published.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	rows, err := r.store.Poll(ctx, r.config.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if r.metrics != nil {
		r.metrics.PollBatchSize.Observe(float64(len(rows)))
	}

	l := pkglog.L()
	published := 0
	for i := range rows {
		ok, err := r.processRecord(ctx, &rows[i])
		if err != nil {
			l.Warn().Err(err).
				Int64("outbox_id", rows[i].ID).
				Str(pkglog.FieldTopic, rows[i].Topic).
				Str(pkglog.FieldEventType, rows[i].EventType).
				Msg("failed to relay outbox event")
			continue
		}
		if ok {
			published++
		}
	}
	return published, nil
}

func (r *Relay) processRecord(ctx context.Context, rec *Record) (bool, error) {
	if rec.RetryCount >= r.config.MaxRetries {
		l := pkglog.L()
		l.Error().
			Int64("outbox_id", rec.ID).
			Str(pkglog.FieldTopic, rec.Topic).
			Int("retry_count", rec.RetryCount).
			Str("last_error", rec.LastError).
			Msg("outbox event exceeded max retries; giving up")
		if err := r.store.MarkProcessed(ctx, rec.ID, true); err != nil {
			return false, err
		}
		if r.metrics != nil {
			r.metrics.EventsProcessed.WithLabelValues(rec.Topic, metrics.StatusFailed).Inc()
		}
		return false, nil
	}

	start := time.Now()
	if err := r.publisher.Publish(ctx, rec.Topic, rec.event()); err != nil {
		if r.metrics != nil {
			r.metrics.RetryTotal.WithLabelValues(rec.Topic).Inc()
		}
		if markErr := r.store.MarkFailed(ctx, rec.ID, err); markErr != nil {
			l := pkglog.L()
			l.Error().Err(markErr).Int64("outbox_id", rec.ID).Msg("failed to record outbox failure")
		}
		return false, fmt.Errorf("publish: %w", err)
	}

	if r.metrics != nil {
		r.metrics.PublishDuration.WithLabelValues(rec.Topic).Observe(time.Since(start).Seconds())
	}

	if err := r.store.MarkProcessed(ctx, rec.ID, false); err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}

	if r.metrics != nil {
		r.metrics.EventsProcessed.WithLabelValues(rec.Topic, metrics.StatusSuccess).Inc()
	}
	return true, nil
}

func (r *Relay) updateGauges(ctx context.Context) {
	if r.metrics == nil {
		return
	}

	count, oldest, err := r.store.Stats(ctx)
	if err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Msg("failed to read outbox stats")
		return
	}

	r.metrics.EventsPending.Set(float64(count))
	if count > 0 && !oldest.IsZero() {
		r.metrics.OldestEventAge.Set(time.Since(oldest).Seconds())
	} else {
		r.metrics.OldestEventAge.Set(0)
	}
}
