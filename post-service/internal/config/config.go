package config

import (
	"time"

	pkgconfig "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
)

type Config struct {
	Server      ServerConfig
	Database    database.Config
	Redis       RedisConfig
	Cache       CacheConfig
	PubSub      pubsub.Config `mapstructure:"pubsub"`
	Events      EventsConfig
	Outbox      outbox.RelayConfig
	UserService peer.Config `mapstructure:"user_service"`
	Storage     storage.Config
	Upload      UploadConfig
	Log         pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig configures the post cache. An empty address disables it.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EventsConfig selects how post events leave the service.
type EventsConfig struct {
	Mode string `mapstructure:"mode"`
}

type UploadConfig struct {
	Expiry  time.Duration `mapstructure:"expiry"`
	MaxSize int64         `mapstructure:"max_size"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, map[string]interface{}{
		"server.host":                     "0.0.0.0",
		"server.port":                     8082,
		"database.driver":                 "postgres",
		"database.host":                   "localhost",
		"database.port":                   5432,
		"database.user":                   "postgres",
		"database.password":               "postgres",
		"database.dbname":                 "post_service",
		"database.sslmode":                "disable",
		"database.file_path":              "./data/post.db",
		"database.max_idle_conns":         10,
		"database.max_open_conns":         100,
		"database.conn_max_lifetime":      60,
		"database.log_level":              "warn",
		"database.slow_threshold":         "200ms",
		"redis.address":                   "",
		"cache.prefix":                    "post",
		"cache.ttl":                       "5m",
		"pubsub.driver":                   pubsub.DriverKafka,
		"pubsub.kafka.brokers":            "localhost:9092",
		"pubsub.kafka.partitions":         3,
		"pubsub.kafka.replication_factor": 1,
		"pubsub.kafka.delivery_timeout":   "10s",
		"pubsub.redis.address":            "localhost:6379",
		"pubsub.redis.max_len":            100000,
		"pubsub.retry_backoff":            "1s",
		"events.mode":                     outbox.ModeDirect,
		"outbox.poll_interval":            "100ms",
		"outbox.batch_size":               100,
		"outbox.max_retries":              5,
		"outbox.cleanup_age":              "168h",
		"outbox.cleanup_interval":         "1h",
		"user_service.base_url":           "http://localhost:8081",
		"user_service.timeout":            "3s",
		"storage.driver":                  "local",
		"storage.local.base_path":         "./data/uploads",
		"storage.local.public_url":        "http://localhost:8082/uploads",
		"storage.s3.region":               "us-east-1",
		"upload.expiry":                   "15m",
		"upload.max_size":                 5 << 20,
		"log.level":                       "info",
		"log.service_name":                "post-service",
	})

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                  "PORT",
		"database.driver":              "DB_DRIVER",
		"database.host":                "DB_HOST",
		"database.port":                "DB_PORT",
		"database.user":                "DB_USER",
		"database.password":            "DB_PASSWORD",
		"database.dbname":              "DB_NAME",
		"database.sslmode":             "DB_SSLMODE",
		"database.file_path":           "DB_FILE_PATH",
		"redis.address":                "REDIS_ADDRESS",
		"redis.password":               "REDIS_PASSWORD",
		"pubsub.driver":                "PUBSUB_DRIVER",
		"pubsub.kafka.brokers":         "KAFKA_BROKERS",
		"pubsub.redis.address":         "PUBSUB_REDIS_ADDRESS",
		"events.mode":                  "EVENTS_MODE",
		"user_service.base_url":        "USER_SERVICE_URL",
		"user_service.timeout":         "PEER_TIMEOUT",
		"storage.driver":               "STORAGE_DRIVER",
		"storage.s3.bucket":            "S3_BUCKET",
		"storage.s3.endpoint":          "S3_ENDPOINT",
		"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
		"storage.local.public_url":     "STORAGE_PUBLIC_URL",
		"log.level":                    "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
