package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/server"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/handler"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/service"
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

	models := []interface{}{&domain.PostModel{}}
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

	// 5. Image storage
	images, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to initialize image storage")
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("image storage initialized")

	// 6. user-service client
	users, err := peer.NewUserClient(cfg.UserService)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user-service client")
	}

	// 7. Redis post cache, optional
	var (
		postCache   cache.PostCache = cache.NopPostCache{}
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
			postCache = cache.NewRedisPostCache(redisClient, cfg.Cache.Prefix)
			logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
		}
	}

	// 8. Repository and services
	postRepo := repository.NewGormPostRepository(db)
	postSvc := service.NewPostService(postRepo, users, emitter, images, postCache, cfg.Cache.TTL)
	imageSvc := service.NewImageService(images, cfg.Upload.Expiry, cfg.Upload.MaxSize)

	var workers []server.Worker
	if emitter.Mode() == outbox.ModeOutbox {
		relay := outbox.NewRelay(outbox.NewStore(db), backbone.Publisher(), cfg.Outbox,
			metrics.NewOutboxMetrics(prometheus.DefaultRegisterer))
		workers = append(workers, relay.Run)
	}

	// 9. HTTP
	r := server.NewEngine(logger)
	h := handler.NewHandler(postSvc, imageSvc)
	h.RegisterRoutes(r)

	if local, ok := images.(*storage.LocalStorage); ok {
		prefix := "/uploads"
		if u, err := url.Parse(cfg.Storage.Local.PublicURL); err == nil && u.Path != "" && u.Path != "/" {
			prefix = u.Path
		}
		r.Static(prefix, local.BasePath())
		h.RegisterUploadRoutes(r, prefix)
		logger.Info().Str("prefix", prefix).Str("dir", local.BasePath()).Msg("serving local images")
	}

	closers := []server.Closer{{Name: "publisher", Close: backbone.Close}}
	if redisClient != nil {
		closers = append(closers, server.Closer{Name: "redis", Close: redisClient.Close})
	}
	closers = append(closers, server.Closer{Name: "database", Close: sqlDB.Close})

	if err := server.Run(context.Background(), server.Options{
		Name:    "post-service",
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
		Workers: workers,
		Closers: closers,
	}); err != nil {
		logger.Fatal().Err(err).Msg("post-service exited with error")
	}
}
