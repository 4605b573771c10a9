package config

import (
	pkgconfig "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

type Config struct {
	Server      ServerConfig
	Database    database.Config
	PubSub      pubsub.Config `mapstructure:"pubsub"`
	Events      EventsConfig
	Outbox      outbox.RelayConfig
	UserService peer.Config `mapstructure:"user_service"`
	PostService peer.Config `mapstructure:"post_service"`
	Log         pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// EventsConfig selects how like events leave the service.
type EventsConfig struct {
	Mode string `mapstructure:"mode"`
	// ConsumePostDeleted removes the likes of deleted posts.
	ConsumePostDeleted bool `mapstructure:"consume_post_deleted"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, map[string]interface{}{
		"server.host":                     "0.0.0.0",
		"server.port":                     8083,
		"database.driver":                 "postgres",
		"database.host":                   "localhost",
		"database.port":                   5432,
		"database.user":                   "postgres",
		"database.password":               "postgres",
		"database.dbname":                 "interaction_service",
		"database.sslmode":                "disable",
		"database.file_path":              "./data/interaction.db",
		"database.max_idle_conns":         10,
		"database.max_open_conns":         100,
		"database.conn_max_lifetime":      60,
		"database.log_level":              "warn",
		"database.slow_threshold":         "200ms",
		"pubsub.driver":                   pubsub.DriverKafka,
		"pubsub.kafka.brokers":            "localhost:9092",
		"pubsub.kafka.partitions":         3,
		"pubsub.kafka.replication_factor": 1,
		"pubsub.kafka.delivery_timeout":   "10s",
		"pubsub.redis.address":            "localhost:6379",
		"pubsub.redis.max_len":            100000,
		"pubsub.redis.block":              "1s",
		"pubsub.redis.claim_idle":         "1m",
		"pubsub.retry_backoff":            "1s",
		"events.mode":                     outbox.ModeDirect,
		"events.consume_post_deleted":     true,
		"outbox.poll_interval":            "100ms",
		"outbox.batch_size":               100,
		"outbox.max_retries":              5,
		"outbox.cleanup_age":              "168h",
		"outbox.cleanup_interval":         "1h",
		"user_service.base_url":           "http://localhost:8081",
		"user_service.timeout":            "3s",
		"post_service.base_url":           "http://localhost:8082",
		"post_service.timeout":            "3s",
		"log.level":                       "info",
		"log.service_name":                "interaction-service",
	})

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":           "PORT",
		"database.driver":       "DB_DRIVER",
		"database.host":         "DB_HOST",
		"database.port":         "DB_PORT",
		"database.user":         "DB_USER",
		"database.password":     "DB_PASSWORD",
		"database.dbname":       "DB_NAME",
		"database.sslmode":      "DB_SSLMODE",
		"database.file_path":    "DB_FILE_PATH",
		"pubsub.driver":         "PUBSUB_DRIVER",
		"pubsub.kafka.brokers":  "KAFKA_BROKERS",
		"pubsub.redis.address":  "PUBSUB_REDIS_ADDRESS",
		"events.mode":           "EVENTS_MODE",
		"user_service.base_url": "USER_SERVICE_URL",
		"user_service.timeout":  "PEER_TIMEOUT",
		"post_service.base_url": "POST_SERVICE_URL",
		"post_service.timeout":  "PEER_TIMEOUT",
		"log.level":             "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
