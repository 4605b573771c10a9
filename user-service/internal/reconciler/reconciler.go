package reconciler

import (
	"context"
	"time"

	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/config"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/store"
)

// CountSource returns the authoritative followers count of a user.
type CountSource interface {
	GetFollowersCount(ctx context.Context, userID int64) (int64, error)
}

// Reconciler periodically rewrites the cached followers counts of the most
// read users from the database.
type Reconciler struct {
	store  store.FollowStore
	source CountSource
	cfg    config.ReconcilerConfig
}

func New(store store.FollowStore, source CountSource, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{store: store, source: source, cfg: cfg}
}

// Run reconciles every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile runs one pass: the top-N hot users get their count reloaded and
// the access scores start over.
func (r *Reconciler) Reconcile(ctx context.Context) {
	l := pkglog.L()

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	userIDs, err := r.store.GetTopHotKeys(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot keys")
		return
	}

	if len(userIDs) == 0 {
		l.Debug().Msg("reconciler: no hot keys to reconcile")
		return
	}

	for _, userID := range userIDs {
		count, err := r.source.GetFollowersCount(ctx, userID)
		if err != nil {
			l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Msg("reconciler: failed to get followers count from db")
			continue
		}
		if err := r.store.SetFollowersCount(ctx, userID, count); err != nil {
			l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Msg("reconciler: failed to set followers count in redis")
		}
	}

	if err := r.store.ResetHotKeyScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot key scores")
	}

	l.Info().Int("count", len(userIDs)).Msg("reconciler: hot-key reconciliation complete")
}
