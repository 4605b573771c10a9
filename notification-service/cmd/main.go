package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/consumer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/dedup"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/handler"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/notification-service/internal/service"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/server"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	cfg.Log.Pretty = cfg.Log.Pretty || cfg.Log.Level == "debug"
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	// 3. Init DB and migrate
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	if err := database.AutoMigrate(db, &domain.NotificationModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// 4. Deduplication, optional
	var (
		deduper     dedup.Deduper = dedup.Nop{}
		redisClient *redis.Client
	)
	if cfg.Dedup.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("dedup enabled but redis unavailable")
		}
		deduper = dedup.NewRedisDeduper(redisClient, cfg.Dedup.TTL)
		logger.Info().Dur("ttl", cfg.Dedup.TTL).Msg("event deduplication enabled")
	}

	// 5. Repository and service
	notificationRepo := repository.NewGormNotificationRepository(db)
	notificationSvc := service.NewNotificationService(notificationRepo)

	// 6. Event consumer
	backbone, err := pubsub.Open(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to open event backbone")
	}
	sub, err := backbone.Subscriber(consumer.GroupID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event subscriber")
	}
	consumer.NewEventHandler(notificationSvc, deduper).Register(sub)

	// 7. HTTP
	r := server.NewEngine(logger)
	handler.NewHandler(notificationSvc).RegisterRoutes(r)

	closers := []server.Closer{{Name: "backbone", Close: backbone.Close}}
	if redisClient != nil {
		closers = append(closers, server.Closer{Name: "redis", Close: redisClient.Close})
	}
	closers = append(closers, server.Closer{Name: "database", Close: sqlDB.Close})

	if err := server.Run(context.Background(), server.Options{
		Name:    "notification-service",
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
		Workers: []server.Worker{server.Consume(sub)},
		Closers: closers,
	}); err != nil {
		logger.Fatal().Err(err).Msg("notification-service exited with error")
	}
}
