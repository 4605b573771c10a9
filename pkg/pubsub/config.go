package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Drivers.
const (
	DriverKafka  = "kafka"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers           string        `mapstructure:"brokers"`
	Partitions        int           `mapstructure:"partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	DeliveryTimeout   time.Duration `mapstructure:"delivery_timeout"`
}

// RedisConfig holds Redis Streams configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxLen       int64         `mapstructure:"max_len"`
	Block        time.Duration `mapstructure:"block"`
	ClaimIdle    time.Duration `mapstructure:"claim_idle"`
	ConsumerName string        `mapstructure:"consumer_name"`
}

// Config holds the configuration for the event backbone.
type Config struct {
	Driver       string        `mapstructure:"driver"` // "kafka", "redis", "memory"
	Kafka        KafkaConfig   `mapstructure:"kafka"`
	Redis        RedisConfig   `mapstructure:"redis"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Driver: DriverKafka,
		Kafka: KafkaConfig{
			Brokers:           "localhost:9092",
			Partitions:        3,
			ReplicationFactor: 1,
			DeliveryTimeout:   10 * time.Second,
		},
		Redis: RedisConfig{
			Address:      "localhost:6379",
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MaxLen:       100000,
			Block:        time.Second,
			ClaimIdle:    time.Minute,
		},
		RetryBackoff: time.Second,
	}
}

// Backbone owns the connections of one driver and hands out the publisher
// and consumer-group subscribers built on them.
type Backbone struct {
	cfg       Config
	publisher Publisher
	redis     *redis.Client
	memory    *MemoryBus
}

// Open connects to the configured driver.
func Open(cfg Config) (*Backbone, error) {
	b := &Backbone{cfg: cfg}

	switch cfg.Driver {
	case DriverKafka, "":
		p, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		b.publisher = p

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.redis = client
		b.publisher = NewRedisStreamPublisher(client, cfg.Redis.MaxLen)

	case DriverMemory:
		b.memory = NewMemoryBus()
		b.publisher = b.memory

	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %s", cfg.Driver)
	}

	return b, nil
}

// Publisher returns the shared publisher.
func (b *Backbone) Publisher() Publisher {
	return b.publisher
}

// Subscriber creates a consumer-group member for groupID.
func (b *Backbone) Subscriber(groupID string) (Subscriber, error) {
	switch {
	case b.memory != nil:
		return b.memory.Subscriber(groupID, b.cfg.RetryBackoff), nil
	case b.redis != nil:
		return NewRedisStreamSubscriber(b.redis, groupID, b.cfg.Redis, b.cfg.RetryBackoff), nil
	default:
		return NewKafkaSubscriber(b.cfg.Kafka, groupID, b.cfg.RetryBackoff)
	}
}

// Close releases the publisher and any shared connection.
func (b *Backbone) Close() error {
	err := b.publisher.Close()
	if b.redis != nil {
		if cerr := b.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
