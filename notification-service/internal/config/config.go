package config

import (
	"time"

	pkgconfig "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

type Config struct {
	Server   ServerConfig
	Database database.Config
	Redis    RedisConfig
	PubSub   pubsub.Config `mapstructure:"pubsub"`
	Dedup    DedupConfig
	Log      pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig is only dialed when deduplication is enabled.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DedupConfig controls event deduplication. When disabled, a redelivered
// event creates a second notification.
type DedupConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, map[string]interface{}{
		"server.host":                     "0.0.0.0",
		"server.port":                     8084,
		"database.driver":                 "postgres",
		"database.host":                   "localhost",
		"database.port":                   5432,
		"database.user":                   "postgres",
		"database.password":               "postgres",
		"database.dbname":                 "notification_service",
		"database.sslmode":                "disable",
		"database.file_path":              "./data/notification.db",
		"database.max_idle_conns":         10,
		"database.max_open_conns":         100,
		"database.conn_max_lifetime":      60,
		"database.log_level":              "warn",
		"database.slow_threshold":         "200ms",
		"redis.address":                   "localhost:6379",
		"redis.password":                  "",
		"redis.db":                        0,
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
		"dedup.enabled":                   false,
		"dedup.ttl":                       "24h",
		"log.level":                       "info",
		"log.service_name":                "notification-service",
	})

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":          "PORT",
		"database.driver":      "DB_DRIVER",
		"database.host":        "DB_HOST",
		"database.port":        "DB_PORT",
		"database.user":        "DB_USER",
		"database.password":    "DB_PASSWORD",
		"database.dbname":      "DB_NAME",
		"database.sslmode":     "DB_SSLMODE",
		"database.file_path":   "DB_FILE_PATH",
		"redis.address":        "REDIS_ADDRESS",
		"redis.password":       "REDIS_PASSWORD",
		"pubsub.driver":        "PUBSUB_DRIVER",
		"pubsub.kafka.brokers": "KAFKA_BROKERS",
		"pubsub.redis.address": "PUBSUB_REDIS_ADDRESS",
		"dedup.enabled":        "DEDUP_ENABLED",
		"dedup.ttl":            "DEDUP_TTL",
		"log.level":            "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
