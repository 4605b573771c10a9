// Package server runs a service's HTTP surface next to its background
// workers and stops them in order.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

const (
	httpShutdownTimeout = 5 * time.Second
	shutdownDeadline    = 30 * time.Second
)

// NewEngine returns a gin engine with recovery, request logging and metrics
// middleware, plus the /health and /metrics endpoints.
func NewEngine(logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.Use(metrics.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())
	return r
}

// Worker runs until ctx is cancelled. A non-nil return stops the service.
type Worker func(ctx context.Context) error

// Consume starts sub and closes it once ctx is cancelled, after the
// in-flight message finished.
func Consume(sub pubsub.Subscriber) Worker {
	return func(ctx context.Context) error {
		if err := sub.Start(ctx); err != nil {
			return fmt.Errorf("start subscriber: %w", err)
		}
		<-ctx.Done()
		return sub.Close()
	}
}

// Closer releases a resource after the HTTP server has drained.
type Closer struct {
	Name  string
	Close func() error
}

// Options describes one service process.
type Options struct {
	Name    string
	Addr    string
	Handler http.Handler
	Workers []Worker
	Closers []Closer
}

// Run serves HTTP and runs the workers until SIGINT/SIGTERM, ctx is
// cancelled, or any of them fails. Shutdown then cancels the workers and
// waits for them, drains HTTP for up to 5s and runs the closers in order,
// all under a 30s deadline.
func Run(ctx context.Context, opts Options) error {
	logger := pkglog.L()

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", opts.Addr).Msg(opts.Name + " starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
			return
		}
		serveErr <- nil
	}()

	g, gctx := errgroup.WithContext(runCtx)
	for _, w := range opts.Workers {
		w := w
		g.Go(func() error { return w(gctx) })
	}

	var runErr error
	select {
	case <-gctx.Done():
	case runErr = <-serveErr:
	}
	logger.Info().Msg("shutdown signal received")
	cancel()

	done := make(chan error, 1)
	go func() {
		err := g.Wait()
		if err != nil {
			logger.Error().Err(err).Msg("worker failed")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer shutdownCancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn().Err(serr).Msg("HTTP server forced to shutdown")
		}

		for _, c := range opts.Closers {
			if cerr := c.Close(); cerr != nil {
				logger.Warn().Err(cerr).Str("resource", c.Name).Msg("error during close")
			}
		}
		done <- err
	}()

	select {
	case werr := <-done:
		if runErr == nil {
			runErr = werr
		}
		logger.Info().Msg(opts.Name + " stopped")
	case <-time.After(shutdownDeadline):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
	return runErr
}
