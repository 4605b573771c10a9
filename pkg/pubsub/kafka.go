package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
)

const headerEventType = "eventType"

// KafkaPublisher publishes events with confluent-kafka-go and waits for the
// broker's delivery report before returning.
type KafkaPublisher struct {
	producer *kafka.Producer
	config   KafkaConfig
	doneCh   chan struct{}
}

// NewKafkaPublisher creates a producer and makes sure every topic exists.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"acks":               "all",
		"linger.ms":          5,
		"compression.type":   "snappy",
		"message.timeout.ms": int(timeout.Milliseconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		config:   cfg,
		doneCh:   make(chan struct{}),
	}

	go kp.eventsHandler()

	if err := kp.ensureTopics(); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	return kp, nil
}

// ensureTopics creates the domain topics if they don't exist.
func (k *KafkaPublisher) ensureTopics() error {
	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 3
	}
	replication := k.config.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := make([]kafka.TopicSpecification, 0, len(AllTopics))
	for _, topic := range AllTopics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	l := pkglog.L()
	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			l.Warn().Str(pkglog.FieldTopic, r.Topic).Err(r.Error).Msg("failed to create topic")
		}
	}

	return nil
}

// eventsHandler drains producer-level events. Per-message delivery reports
// go to the channel passed to Produce and never arrive here.
func (k *KafkaPublisher) eventsHandler() {
	l := pkglog.L()
	for e := range k.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l.Warn().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
			}
		case kafka.Error:
			l.Error().Err(ev).Bool("fatal", ev.IsFatal()).Msg("kafka producer error")
		}
	}
	close(k.doneCh)
}

// Publish produces the event to topic and blocks until the delivery report
// arrives or ctx is done.
func (k *KafkaPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	deliveryCh := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value:     data,
		Timestamp: event.Timestamp,
		Headers:   []kafka.Header{{Key: headerEventType, Value: []byte(event.Type)}},
	}, deliveryCh)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryCh:
		m, ok := e.(*kafka.Message)
		if !ok {
			metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
			return fmt.Errorf("unexpected delivery event %T", e)
		}
		if m.TopicPartition.Error != nil {
			metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
			return fmt.Errorf("kafka delivery failed: %w", m.TopicPartition.Error)
		}
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusSuccess).Inc()
		return nil
	case <-ctx.Done():
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusFailed).Inc()
		return fmt.Errorf("waiting for kafka delivery: %w", ctx.Err())
	}
}

// Close flushes pending messages and closes the producer.
func (k *KafkaPublisher) Close() error {
	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh
	return nil
}

// KafkaSubscriber is a consumer-group member with manual offset commits.
// A message's offset is committed only after its handler succeeded; on
// failure the partition is rewound to the message so it is delivered again.
type KafkaSubscriber struct {
	consumer *kafka.Consumer
	handlers map[string]Handler
	backoff  time.Duration
	doneCh   chan struct{}
	once     sync.Once
	started  bool
}

// NewKafkaSubscriber creates a consumer in groupID.
func NewKafkaSubscriber(cfg KafkaConfig, groupID string, backoff time.Duration) (*KafkaSubscriber, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaSubscriber{
		consumer: c,
		handlers: make(map[string]Handler),
		backoff:  backoff,
		doneCh:   make(chan struct{}),
	}, nil
}

// Handle registers the handler for topic. Call before Start.
func (s *KafkaSubscriber) Handle(topic string, handler Handler) {
	s.handlers[topic] = handler
}

// Start subscribes to every registered topic and begins consuming.
func (s *KafkaSubscriber) Start(ctx context.Context) error {
	if len(s.handlers) == 0 {
		return errors.New("no handlers registered")
	}

	topics := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	if err := s.consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v: %w", topics, err)
	}

	l := pkglog.L()
	l.Info().Strs("topics", topics).Msg("kafka consumer started")

	s.started = true
	go s.consumeLoop(ctx)

	return nil
}

func (s *KafkaSubscriber) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("kafka consumer shutting down")
			return
		default:
		}

		ev := s.consumer.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			s.processMessage(ctx, e)
		case kafka.Error:
			l.Error().Err(e).Int("code", int(e.Code())).Bool("fatal", e.IsFatal()).Msg("kafka consumer error")
			if e.IsFatal() {
				return
			}
		case kafka.OffsetsCommitted:
			if e.Error != nil {
				l.Warn().Err(e.Error).Msg("kafka offset commit failed")
			}
		}
	}
}

// processMessage runs the handler to completion even during shutdown. Only
// the backoff after a failure is cut short by ctx.
func (s *KafkaSubscriber) processMessage(ctx context.Context, msg *kafka.Message) {
	l := pkglog.L()
	if msg.TopicPartition.Error != nil {
		l.Warn().Err(msg.TopicPartition.Error).Msg("kafka message error")
		return
	}

	topic := *msg.TopicPartition.Topic
	handler, ok := s.handlers[topic]
	if !ok {
		s.commit(msg)
		return
	}

	event, err := decodeEvent(msg.Value)
	if err != nil {
		skipUndecodable(topic, err)
		s.commit(msg)
		return
	}

	if err := dispatch(context.WithoutCancel(ctx), topic, handler, event); err != nil {
		if serr := s.consumer.Seek(msg.TopicPartition, 0); serr != nil {
			l.Error().Err(serr).
				Str(pkglog.FieldTopic, topic).
				Int32(pkglog.FieldPartition, msg.TopicPartition.Partition).
				Int64(pkglog.FieldOffset, int64(msg.TopicPartition.Offset)).
				Msg("failed to rewind partition after handler error")
		}
		sleepCtx(ctx, s.backoff)
		return
	}

	s.commit(msg)
}

func (s *KafkaSubscriber) commit(msg *kafka.Message) {
	if _, err := s.consumer.CommitMessage(msg); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).
			Str(pkglog.FieldTopic, *msg.TopicPartition.Topic).
			Int64(pkglog.FieldOffset, int64(msg.TopicPartition.Offset)).
			Msg("failed to commit offset")
	}
}

// Close waits for the in-flight message and closes the consumer.
func (s *KafkaSubscriber) Close() error {
	var err error
	s.once.Do(func() {
		if s.started {
			<-s.doneCh
		}
		if cerr := s.consumer.Close(); cerr != nil {
			err = fmt.Errorf("failed to close kafka consumer: %w", cerr)
		}
	})
	return err
}
