package pubsub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
)

const streamField = "event"

// RedisStreamPublisher appends events to one Redis stream per topic.
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher on an existing client. Streams
// are trimmed approximately to maxLen entries; zero disables trimming.
func NewRedisStreamPublisher(client *redis.Client, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, maxLen: maxLen}
}

// Publish appends the event. XADD returns after the entry is stored.
func (r *RedisStreamPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{streamField: data},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
		return fmt.Errorf("failed to append to stream %s: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic, metrics.StatusSuccess).Inc()
	return nil
}

// Close is a no-op; the client is owned by the Backbone.
func (r *RedisStreamPublisher) Close() error {
	return nil
}

// RedisStreamSubscriber consumes streams as a member of a consumer group.
// Entries are acknowledged only after their handler succeeded. Failed
// entries stay in the pending list and are read again before new ones.
type RedisStreamSubscriber struct {
	client   *redis.Client
	group    string
	consumer string
	cfg      RedisConfig
	backoff  time.Duration
	handlers map[string]Handler
	topics   []string

	cancel context.CancelFunc
	doneCh chan struct{}
	once   sync.Once
}

// NewRedisStreamSubscriber creates a consumer group member on client.
func NewRedisStreamSubscriber(client *redis.Client, group string, cfg RedisConfig, backoff time.Duration) *RedisStreamSubscriber {
	return &RedisStreamSubscriber{
		client:   client,
		group:    group,
		consumer: consumerName(cfg.ConsumerName),
		cfg:      cfg,
		backoff:  backoff,
		handlers: make(map[string]Handler),
		doneCh:   make(chan struct{}),
	}
}

func consumerName(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

// Handle registers the handler for topic. Call before Start.
func (s *RedisStreamSubscriber) Handle(topic string, handler Handler) {
	s.handlers[topic] = handler
}

// Start creates the consumer group on every topic and begins consuming.
func (s *RedisStreamSubscriber) Start(ctx context.Context) error {
	if len(s.handlers) == 0 {
		return errors.New("no handlers registered")
	}

	for t := range s.handlers {
		s.topics = append(s.topics, t)
	}
	sort.Strings(s.topics)

	for _, topic := range s.topics {
		err := s.client.XGroupCreateMkStream(ctx, topic, s.group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group %s on %s: %w", s.group, topic, err)
		}
	}

	ctx, s.cancel = context.WithCancel(ctx)

	l := pkglog.L()
	l.Info().
		Strs("topics", s.topics).
		Str("group", s.group).
		Str("consumer", s.consumer).
		Msg("redis stream consumer started")

	go s.consumeLoop(ctx)
	return nil
}

// topicState tracks whether a topic has entries left in this consumer's
// pending list, and when a failed entry may be retried.
type topicState struct {
	pending bool
	retryAt time.Time
}

// consumeLoop keeps every topic moving on its own. A topic whose entry keeps
// failing is retried after the backoff while the other topics read on.
func (s *RedisStreamSubscriber) consumeLoop(ctx context.Context) {
	defer close(s.doneCh)

	l := pkglog.L()
	lastClaim := time.Now()

	// Start by draining whatever a previous run left pending.
	states := make(map[string]*topicState, len(s.topics))
	for _, t := range s.topics {
		states[t] = &topicState{pending: true}
	}

	for ctx.Err() == nil {
		if s.cfg.ClaimIdle > 0 && time.Since(lastClaim) >= s.cfg.ClaimIdle {
			s.claimStale(ctx, states)
			lastClaim = time.Now()
		}

		now := time.Now()
		var fresh []string
		draining := false
		for _, topic := range s.topics {
			st := states[topic]
			if now.Before(st.retryAt) {
				continue
			}
			if st.pending {
				if err := s.readOnce(ctx, []string{topic}, "0", -1, states); err != nil {
					s.readFailed(ctx, err)
					continue
				}
			}
			switch {
			case !st.pending:
				fresh = append(fresh, topic)
			case !time.Now().Before(st.retryAt):
				draining = true
			}
		}

		if len(fresh) == 0 {
			if !draining {
				sleepCtx(ctx, s.untilRetry(states))
			}
			continue
		}

		block := s.blockFor(states)
		if draining {
			block = -1
		}
		if err := s.readOnce(ctx, fresh, ">", block, states); err != nil {
			s.readFailed(ctx, err)
		}
	}

	l.Info().Str("group", s.group).Msg("redis stream consumer shutting down")
}

func (s *RedisStreamSubscriber) readFailed(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	l := pkglog.L()
	l.Warn().Err(err).Str("group", s.group).Msg("redis stream read failed")
	sleepCtx(ctx, s.retryDelay())
}

func (s *RedisStreamSubscriber) retryDelay() time.Duration {
	if s.backoff <= 0 {
		return 10 * time.Millisecond
	}
	return s.backoff
}

// untilRetry returns how long until the earliest backed-off topic may retry.
func (s *RedisStreamSubscriber) untilRetry(states map[string]*topicState) time.Duration {
	wait := s.retryDelay()
	now := time.Now()
	for _, st := range states {
		if d := st.retryAt.Sub(now); d > 0 && d < wait {
			wait = d
		}
	}
	return wait
}

// blockFor caps the blocking read so a backed-off topic is retried on time.
func (s *RedisStreamSubscriber) blockFor(states map[string]*topicState) time.Duration {
	block := s.cfg.Block
	if block <= 0 {
		block = time.Second
	}
	now := time.Now()
	for _, st := range states {
		if d := st.retryAt.Sub(now); d > 0 && d < block {
			block = d
		}
	}
	if block < time.Millisecond {
		block = time.Millisecond
	}
	return block
}

// readOnce reads topics starting at id and dispatches each topic's entries
// in order. A handler failure stops that topic only: its remaining entries
// stay pending and the topic backs off. The returned error is a read error.
func (s *RedisStreamSubscriber) readOnce(ctx context.Context, topics []string, id string, block time.Duration, states map[string]*topicState) error {
	streams := make([]string, 0, len(topics)*2)
	streams = append(streams, topics...)
	for range topics {
		streams = append(streams, id)
	}

	res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  streams,
		Count:    10,
		Block:    block,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	got := make(map[string]int, len(res))
	for _, stream := range res {
		st := states[stream.Stream]
		for _, msg := range stream.Messages {
			got[stream.Stream]++
			if herr := s.handleMessage(context.WithoutCancel(ctx), stream.Stream, msg); herr != nil {
				st.pending = true
				st.retryAt = time.Now().Add(s.retryDelay())
				break
			}
		}
	}

	// Reading history with nothing left means the topic is drained.
	if id != ">" {
		for _, topic := range topics {
			if got[topic] == 0 {
				states[topic].pending = false
			}
		}
	}
	return nil
}

func (s *RedisStreamSubscriber) handleMessage(ctx context.Context, topic string, msg redis.XMessage) error {
	handler := s.handlers[topic]

	raw, ok := msg.Values[streamField].(string)
	if !ok {
		skipUndecodable(topic, fmt.Errorf("entry %s has no %q field", msg.ID, streamField))
		s.ack(ctx, topic, msg.ID)
		return nil
	}

	event, err := decodeEvent([]byte(raw))
	if err != nil {
		skipUndecodable(topic, err)
		s.ack(ctx, topic, msg.ID)
		return nil
	}

	if err := dispatch(ctx, topic, handler, event); err != nil {
		return err
	}

	s.ack(ctx, topic, msg.ID)
	return nil
}

func (s *RedisStreamSubscriber) ack(ctx context.Context, topic, id string) {
	if err := s.client.XAck(ctx, topic, s.group, id).Err(); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldTopic, topic).Str("id", id).Msg("failed to ack stream entry")
	}
}

// claimStale takes over entries left pending by consumers that went away.
// Topics that gained entries are read from history next.
func (s *RedisStreamSubscriber) claimStale(ctx context.Context, states map[string]*topicState) {
	l := pkglog.L()
	for _, topic := range s.topics {
		msgs, _, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   topic,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.cfg.ClaimIdle,
			Start:    "0-0",
			Count:    100,
		}).Result()
		if err != nil {
			l.Warn().Err(err).Str(pkglog.FieldTopic, topic).Msg("failed to claim stale entries")
			continue
		}
		if len(msgs) > 0 {
			states[topic].pending = true
			l.Info().Str(pkglog.FieldTopic, topic).Int("count", len(msgs)).Msg("claimed stale stream entries")
		}
	}
}

// Close stops consuming and waits for the in-flight entry.
func (s *RedisStreamSubscriber) Close() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.doneCh
		}
	})
	return nil
}
