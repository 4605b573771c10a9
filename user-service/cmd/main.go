package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/server"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/handler"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/reconciler"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/service"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/store"
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

	models := []interface{}{&domain.UserModel{}, &domain.FollowModel{}}
	if cfg.Events.Mode == outbox.ModeOutbox {
		models = append(models, &outbox.Record{})
	}
	if err := database.AutoMigrate(db, models...); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	// 4. Event backbone
	backbone, err := pubsub.Open(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to open event backbone")
	}
	emitter, err := outbox.NewEmitter(db, backbone.Publisher(), cfg.Events.Mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event emitter")
	}

	// 5. Redis cache and follower-count store, both optional
	var (
		userCache   cache.UserCache   = cache.NopUserCache{}
		followStore store.FollowStore = store.NoopFollowStore{}
		redisClient *redis.Client
	)
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unavailable; caching disabled")
			_ = redisClient.Close()
			redisClient = nil
		} else {
			userCache = cache.NewRedisUserCache(redisClient, cfg.Cache.Prefix)
			followStore = store.NewRedisFollowStore(redisClient)
			logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
		}
	}

	// 6. Repositories and services
	userRepo := repository.NewGormUserRepository(db)
	followRepo := repository.NewGormFollowRepository(db)
	userSvc := service.NewUserService(userRepo, userCache, cfg.Cache.TTL)
	followSvc := service.NewFollowService(userRepo, followRepo, followStore, emitter)

	// 7. Background workers
	rec := reconciler.New(followStore, followRepo, cfg.Reconciler)
	workers := []server.Worker{rec.Run}
	if emitter.Mode() == outbox.ModeOutbox {
		relay := outbox.NewRelay(outbox.NewStore(db), backbone.Publisher(), cfg.Outbox,
			metrics.NewOutboxMetrics(prometheus.DefaultRegisterer))
		workers = append(workers, relay.Run)
	}

	// 8. HTTP
	r := server.NewEngine(logger)
	handler.NewHandler(userSvc, followSvc).RegisterRoutes(r)

	closers := []server.Closer{{Name: "publisher", Close: backbone.Close}}
	if redisClient != nil {
		closers = append(closers, server.Closer{Name: "redis", Close: redisClient.Close})
	}
	closers = append(closers, server.Closer{Name: "database", Close: sqlDB.Close})

	if err := server.Run(context.Background(), server.Options{
		Name:    "user-service",
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
		Workers: workers,
		Closers: closers,
	}); err != nil {
		logger.Fatal().Err(err).Msg("user-service exited with error")
	}
}
