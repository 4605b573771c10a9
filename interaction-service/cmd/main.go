package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/consumer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/handler"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/service"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
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

	models := []interface{}{&domain.LikeModel{}}
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

	// 5. Peer clients
	users, err := peer.NewUserClient(cfg.UserService)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user-service client")
	}
	posts, err := peer.NewPostClient(cfg.PostService)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create post-service client")
	}

	// 6. Repository and service
	likeRepo := repository.NewGormLikeRepository(db)
	likeSvc := service.NewLikeService(likeRepo, users, posts, emitter)

	// 7. Background workers
	var workers []server.Worker
	if cfg.Events.ConsumePostDeleted {
		sub, err := backbone.Subscriber(consumer.GroupID)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create event subscriber")
		}
		consumer.NewPostEventHandler(likeSvc).Register(sub)
		workers = append(workers, server.Consume(sub))
	}
	if emitter.Mode() == outbox.ModeOutbox {
		relay := outbox.NewRelay(outbox.NewStore(db), backbone.Publisher(), cfg.Outbox,
			metrics.NewOutboxMetrics(prometheus.DefaultRegisterer))
		workers = append(workers, relay.Run)
	}

	// 8. HTTP
	r := server.NewEngine(logger)
	handler.NewHandler(likeSvc).RegisterRoutes(r)

	if err := server.Run(context.Background(), server.Options{
		Name:    "interaction-service",
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
		Workers: workers,
		Closers: []server.Closer{
			{Name: "publisher", Close: backbone.Close},
			{Name: "database", Close: sqlDB.Close},
		},
	}); err != nil {
		logger.Fatal().Err(err).Msg("interaction-service exited with error")
	}
}
