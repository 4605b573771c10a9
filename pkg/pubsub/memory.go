package pubsub

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
)

// MemoryBus is an in-process backbone. Every topic is an append-only log and
// every consumer group keeps its own offset per topic, so it behaves like a
// single-partition Kafka topic. Used for local runs and tests.
type MemoryBus struct {
	mu      sync.Mutex
	logs    map[string][]*Event
	offsets map[string]map[string]int
	closed  bool
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		logs:    make(map[string][]*Event),
		offsets: make(map[string]map[string]int),
	}
}

// Publish appends event to topic.
func (b *MemoryBus) Publish(_ context.Context, topic string, event *Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
		return errors.New("memory bus closed")
	}

	b.logs[topic] = append(b.logs[topic], event)
	metrics.EventsPublished.WithLabelValues(topic, metrics.StatusSuccess).Inc()
	return nil
}

// Events returns a copy of everything published to topic.
func (b *MemoryBus) Events(topic string) []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*Event, len(b.logs[topic]))
	copy(out, b.logs[topic])
	return out
}

// Close rejects further publishes.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

// Subscriber creates a member of group. Members of the same group share
// offsets.
func (b *MemoryBus) Subscriber(group string, backoff time.Duration) *MemorySubscriber {
	return &MemorySubscriber{
		bus:      b,
		group:    group,
		backoff:  backoff,
		interval: 10 * time.Millisecond,
		handlers: make(map[string]Handler),
		doneCh:   make(chan struct{}),
	}
}

func (b *MemoryBus) next(group, topic string) (*Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	off := b.offsets[group][topic]
	if off >= len(b.logs[topic]) {
		return nil, false
	}
	return b.logs[topic][off], true
}

func (b *MemoryBus) commit(group, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.offsets[group] == nil {
		b.offsets[group] = make(map[string]int)
	}
	b.offsets[group][topic]++
}

// MemorySubscriber consumes a MemoryBus as one consumer group.
type MemorySubscriber struct {
	bus      *MemoryBus
	group    string
	backoff  time.Duration
	interval time.Duration
	handlers map[string]Handler

	cancel context.CancelFunc
	doneCh chan struct{}
	once   sync.Once
}

// Handle registers the handler for topic. Call before Start.
func (s *MemorySubscriber) Handle(topic string, handler Handler) {
	s.handlers[topic] = handler
}

// Poll delivers every pending event once, in publish order per topic. The
// group offset advances only past events whose handler succeeded; the first
// failure stops the topic and is returned.
func (s *MemorySubscriber) Poll(ctx context.Context) (int, error) {
	topics := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	n := 0
	var firstErr error
	for _, topic := range topics {
		for {
			e, ok := s.bus.next(s.group, topic)
			if !ok {
				break
			}
			if err := dispatch(ctx, topic, s.handlers[topic], e); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				break
			}
			s.bus.commit(s.group, topic)
			n++
		}
	}
	return n, firstErr
}

// Start polls in the background until Close.
func (s *MemorySubscriber) Start(ctx context.Context) error {
	if len(s.handlers) == 0 {
		return errors.New("no handlers registered")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Poll(ctx); err != nil {
					sleepCtx(ctx, s.backoff)
				}
			}
		}
	}()
	return nil
}

// Close stops the polling loop.
func (s *MemorySubscriber) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.doneCh
		}
	})
	return nil
}
