package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/audit"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/store"
)

var ErrSelfFollow = errs.New(errs.ErrInvalidOperation, "cannot follow yourself")

type followService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	store   store.FollowStore
	emitter *outbox.Emitter
	loads   singleflight.Group
}

// NewFollowService creates the follow service. followStore may be nil.
func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, followStore store.FollowStore, emitter *outbox.Emitter) FollowService {
	if followStore == nil {
		followStore = store.NoopFollowStore{}
	}
	return &followService{
		users:   users,
		follows: follows,
		store:   followStore,
		emitter: emitter,
	}
}

func (s *followService) Follow(ctx context.Context, followerID, followingID int64) (*domain.FollowResponse, error) {
	l := pkglog.Ctx(ctx)

	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	exists, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		l.Error().Err(err).Msg("failed to check existing follow")
		return nil, err
	}
	if exists {
		return nil, repository.ErrAlreadyFollowing
	}

	follower, err := s.mustGetUser(ctx, followerID)
	if err != nil {
		return nil, err
	}
	following, err := s.mustGetUser(ctx, followingID)
	if err != nil {
		return nil, err
	}

	follow := &domain.Follow{FollowerID: followerID, FollowingID: followingID}
	err = s.emitter.Execute(ctx, func(tx *gorm.DB) ([]outbox.Message, error) {
		if err := s.follows.WithTx(tx).Create(ctx, follow); err != nil {
			return nil, err
		}

		msg, err := outbox.NewMessage(pubsub.TopicUserFollowed, pubsub.EventUserFollowed, pubsub.UserFollowedPayload{
			FollowerID:        follower.ID,
			FollowingID:       following.ID,
			FollowerUsername:  follower.Username,
			FollowingUsername: following.Username,
			EventTime:         time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return []outbox.Message{msg}, nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrAlreadyExists) {
			l.Error().Err(err).
				Int64("follower_id", followerID).
				Int64("following_id", followingID).
				Msg("failed to follow user")
		}
		return nil, err
	}

	if err := s.store.CondIncrFollowersCount(ctx, followingID); err != nil {
		l.Warn().Err(err).Int64(pkglog.FieldUserID, followingID).Msg("failed to increment cached followers count")
	}

	audit.LogWithTarget(ctx, audit.ActionFollow, followerID, followingID, "user followed")

	resp := follow.ToResponse()
	return &resp, nil
}

func (s *followService) Unfollow(ctx context.Context, followerID, followingID int64) error {
	l := pkglog.Ctx(ctx)

	if err := s.follows.Delete(ctx, followerID, followingID); err != nil {
		if !errors.Is(err, repository.ErrFollowNotFound) {
			l.Error().Err(err).
				Int64("follower_id", followerID).
				Int64("following_id", followingID).
				Msg("failed to unfollow user")
		}
		return err
	}

	if err := s.store.CondDecrFollowersCount(ctx, followingID); err != nil {
		l.Warn().Err(err).Int64(pkglog.FieldUserID, followingID).Msg("failed to decrement cached followers count")
	}

	audit.LogWithTarget(ctx, audit.ActionUnfollow, followerID, followingID, "user unfollowed")
	return nil
}

func (s *followService) GetFollowers(ctx context.Context, userID int64) ([]domain.UserResponse, error) {
	if _, err := s.mustGetUser(ctx, userID); err != nil {
		return nil, err
	}

	follows, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowerID)
	}
	return s.resolve(ctx, ids)
}

func (s *followService) GetFollowing(ctx context.Context, userID int64) ([]domain.UserResponse, error) {
	if _, err := s.mustGetUser(ctx, userID); err != nil {
		return nil, err
	}

	follows, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowingID)
	}
	return s.resolve(ctx, ids)
}

// resolve returns the users for ids in the given order. Deleted users are
// left out.
func (s *followService) resolve(ctx context.Context, ids []int64) ([]domain.UserResponse, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.UserResponse, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			resp = append(resp, u.ToResponse())
		}
	}
	return resp, nil
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followingID)
}

func (s *followService) BatchIsFollowing(ctx context.Context, followerID int64, targetIDs []int64) (map[int64]bool, error) {
	return s.follows.BatchIsFollowing(ctx, followerID, targetIDs)
}

func (s *followService) GetStats(ctx context.Context, userID int64) (*domain.FollowStats, error) {
	if _, err := s.mustGetUser(ctx, userID); err != nil {
		return nil, err
	}

	followers, err := s.followersCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	following, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.FollowStats{
		UserID:         userID,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

// followersCount checks Redis first. On a miss one caller per user loads the
// count from the database and populates Redis.
func (s *followService) followersCount(ctx context.Context, userID int64) (int64, error) {
	l := pkglog.Ctx(ctx)

	if err := s.store.RecordAccess(ctx, userID); err != nil {
		l.Warn().Err(err).Int64(pkglog.FieldUserID, userID).Msg("failed to record hot key access")
	}

	count, found, err := s.store.GetFollowersCount(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Int64(pkglog.FieldUserID, userID).Msg("redis get followers count failed, falling back to db")
	}
	if found {
		return count, nil
	}

	v, err, _ := s.loads.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		count, err := s.follows.GetFollowersCount(ctx, userID)
		if err != nil {
			return int64(0), err
		}
		if err := s.store.SetFollowersCount(ctx, userID, count); err != nil {
			l.Warn().Err(err).Int64(pkglog.FieldUserID, userID).Msg("failed to set followers count in redis")
		}
		return count, nil
	})
	if err != nil {
		l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Msg("failed to get followers count from db")
		return 0, err
	}
	return v.(int64), nil
}

func (s *followService) mustGetUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l := pkglog.Ctx(ctx)
			l.Error().Err(err).Int64(pkglog.FieldUserID, userID).Msg("failed to get user")
		}
		return nil, err
	}
	return user, nil
}
