package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
)

const defaultSlowThreshold = 200 * time.Millisecond

// zerologGormLogger routes gorm's SQL logging through the request's context
// logger, so statements carry the request_id of the call that issued them.
type zerologGormLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewLogger returns a gorm logger backed by pkg/log.
// level is one of silent, error, warn, info.
func NewLogger(level string, slowThreshold time.Duration) logger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &zerologGormLogger{level: parseGormLevel(level), slowThreshold: slowThreshold}
}

func parseGormLevel(s string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (g *zerologGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *zerologGormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Info {
		l := pkglog.Ctx(ctx)
		l.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *zerologGormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Warn {
		l := pkglog.Ctx(ctx)
		l.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *zerologGormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= logger.Error {
		l := pkglog.Ctx(ctx)
		l.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func (g *zerologGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	l := pkglog.Ctx(ctx)

	switch {
	// Not-found and duplicate keys are expected outcomes handled by repositories.
	case err != nil && g.level >= logger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !IsUniqueViolation(err):
		sql, rows := fc()
		l.Error().Err(err).Str("sql", sql).Int64("rows", rows).
			Float64(pkglog.FieldLatency, float64(elapsed.Milliseconds())).
			Msg("gorm query failed")
	case elapsed > g.slowThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		l.Warn().Str("sql", sql).Int64("rows", rows).
			Float64(pkglog.FieldLatency, float64(elapsed.Milliseconds())).
			Msg("slow query")
	case g.level >= logger.Info:
		sql, rows := fc()
		l.Debug().Str("sql", sql).Int64("rows", rows).
			Float64(pkglog.FieldLatency, float64(elapsed.Milliseconds())).
			Msg("gorm query")
	}
}
