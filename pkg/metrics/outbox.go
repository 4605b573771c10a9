package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics contains Prometheus metrics for the outbox relay.
type OutboxMetrics struct {
	EventsPending       prometheus.Gauge
	EventsProcessed     *prometheus.CounterVec
	PublishDuration     *prometheus.HistogramVec
	RetryTotal          *prometheus.CounterVec
	OldestEventAge      prometheus.Gauge
	PollBatchSize       prometheus.Histogram
	CleanupDeletedTotal prometheus.Counter
}

// NewOutboxMetrics creates and registers outbox metrics with the given registerer.
func NewOutboxMetrics(registerer prometheus.Registerer) *OutboxMetrics {
	m := &OutboxMetrics{
		EventsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_events_pending",
			Help:      "Current number of unpublished events in the outbox",
		}),
		EventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_processed_total",
				Help:      "Total number of relayed outbox events",
			},
			[]string{"topic", "status"},
		),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "outbox_publish_duration_seconds",
				Help:      "Time to publish one outbox event",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"topic"},
		),
		RetryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_retry_total",
				Help:      "Total number of failed publish attempts that will be retried",
			},
			[]string{"topic"},
		),
		OldestEventAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_oldest_event_age_seconds",
			Help:      "Age in seconds of the oldest unpublished event",
		}),
		PollBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_poll_batch_size",
			Help:      "Number of events retrieved in each poll",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		CleanupDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_cleanup_deleted_total",
			Help:      "Total number of processed events deleted by cleanup",
		}),
	}

	registerer.MustRegister(
		m.EventsPending,
		m.EventsProcessed,
		m.PublishDuration,
		m.RetryTotal,
		m.OldestEventAge,
		m.PollBatchSize,
		m.CleanupDeletedTotal,
	)

	return m
}
