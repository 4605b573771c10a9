package config

import (
	"time"

	pkgconfig "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

type Config struct {
	Server     ServerConfig
	Database   database.Config
	Redis      RedisConfig
	Cache      CacheConfig
	PubSub     pubsub.Config `mapstructure:"pubsub"`
	Events     EventsConfig
	Outbox     outbox.RelayConfig
	Reconciler ReconcilerConfig
	Log        pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig configures the cache connection. An empty address disables
// both the profile cache and the follower-count store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EventsConfig selects how follow events leave the service: "direct"
// publishes after commit, "outbox" stores them for the relay.
type EventsConfig struct {
	Mode string `mapstructure:"mode"`
}

// ReconcilerConfig holds hot-key reconciler settings.
type ReconcilerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	TopN     int           `mapstructure:"top_n"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	pkgconfig.SetDefaults(v, map[string]interface{}{
		"server.host":                     "0.0.0.0",
		"server.port":                     8081,
		"database.driver":                 "postgres",
		"database.host":                   "localhost",
		"database.port":                   5432,
		"database.user":                   "postgres",
		"database.password":               "postgres",
		"database.dbname":                 "user_service",
		"database.sslmode":                "disable",
		"database.file_path":              "./data/user.db",
		"database.max_idle_conns":         10,
		"database.max_open_conns":         100,
		"database.conn_max_lifetime":      60,
		"database.log_level":              "warn",
		"database.slow_threshold":         "200ms",
		"redis.address":                   "localhost:6379",
		"redis.password":                  "",
		"redis.db":                        0,
		"cache.prefix":                    "user",
		"cache.ttl":                       "30s",
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
		"reconciler.interval":             "60s",
		"reconciler.top_n":                100,
		"log.level":                       "info",
		"log.service_name":                "user-service",
	})

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                "PORT",
		"database.driver":            "DB_DRIVER",
		"database.host":              "DB_HOST",
		"database.port":              "DB_PORT",
		"database.user":              "DB_USER",
		"database.password":          "DB_PASSWORD",
		"database.dbname":            "DB_NAME",
		"database.sslmode":           "DB_SSLMODE",
		"database.file_path":         "DB_FILE_PATH",
		"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
		"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
		"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
		"redis.address":              "REDIS_ADDRESS",
		"redis.password":             "REDIS_PASSWORD",
		"pubsub.driver":              "PUBSUB_DRIVER",
		"pubsub.kafka.brokers":       "KAFKA_BROKERS",
		"pubsub.redis.address":       "PUBSUB_REDIS_ADDRESS",
		"events.mode":                "EVENTS_MODE",
		"log.level":                  "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
