package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	pkglog "github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

// usernameLookups bounds the concurrent user lookups of one list request.
const usernameLookups = 8

var ErrInvalidID = errs.New(errs.ErrInvalidOperation, "userId and postId must be positive")

type likeService struct {
	likes   repository.LikeRepository
	users   peer.UserLookup
	posts   peer.PostLookup
	emitter *outbox.Emitter
}

// NewLikeService creates the like service.
func NewLikeService(likes repository.LikeRepository, users peer.UserLookup, posts peer.PostLookup, emitter *outbox.Emitter) LikeService {
	return &likeService{
		likes:   likes,
		users:   users,
		posts:   posts,
		emitter: emitter,
	}
}

// Like records the like and announces it to the post owner. Nothing is
// written unless both the user and the post were found.
func (s *likeService) Like(ctx context.Context, userID, postID int64) (*domain.LikeResponse, error) {
	l := pkglog.Ctx(ctx)

	if userID <= 0 || postID <= 0 {
		return nil, ErrInvalidID
	}

	exists, err := s.likes.Exists(ctx, userID, postID)
	if err != nil {
		l.Error().Err(err).Msg("failed to check existing like")
		return nil, err
	}
	if exists {
		return nil, repository.ErrLikeExists
	}

	var (
		user *peer.UserView
		post *peer.PostView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		post, err = s.posts.GetPost(gctx, postID)
		return err
	})
	if err := g.Wait(); err != nil {
		l.Warn().Err(err).
			Int64(pkglog.FieldUserID, userID).
			Int64("post_id", postID).
			Msg("like rejected by peer lookup")
		return nil, err
	}

	like := &domain.Like{UserID: userID, PostID: postID}
	err = s.emitter.Execute(ctx, func(tx *gorm.DB) ([]outbox.Message, error) {
		if err := s.likes.WithTx(tx).Create(ctx, like); err != nil {
			return nil, err
		}

		msg, err := outbox.NewMessage(pubsub.TopicPostLiked, pubsub.EventPostLiked, pubsub.PostLikedPayload{
			PostID:      postID,
			UserID:      userID,
			Username:    user.Username,
			PostOwnerID: post.UserID,
			EventTime:   time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return []outbox.Message{msg}, nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrAlreadyExists) {
			l.Error().Err(err).
				Int64(pkglog.FieldUserID, userID).
				Int64("post_id", postID).
				Msg("failed to like post")
		}
		return nil, err
	}

	l.Info().
		Int64(pkglog.FieldUserID, userID).
		Int64("post_id", postID).
		Int64("post_owner_id", post.UserID).
		Msg("post liked")

	resp := like.ToResponse(user.Username)
	return &resp, nil
}

func (s *likeService) Unlike(ctx context.Context, userID, postID int64) error {
	l := pkglog.Ctx(ctx)

	if userID <= 0 || postID <= 0 {
		return ErrInvalidID
	}

	err := s.emitter.Execute(ctx, func(tx *gorm.DB) ([]outbox.Message, error) {
		if err := s.likes.WithTx(tx).Delete(ctx, userID, postID); err != nil {
			return nil, err
		}

		msg, err := outbox.NewMessage(pubsub.TopicPostUnliked, pubsub.EventPostUnliked, pubsub.PostUnlikedPayload{
			PostID:    postID,
			UserID:    userID,
			EventTime: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return []outbox.Message{msg}, nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			l.Error().Err(err).
				Int64(pkglog.FieldUserID, userID).
				Int64("post_id", postID).
				Msg("failed to unlike post")
		}
		return err
	}

	l.Info().Int64(pkglog.FieldUserID, userID).Int64("post_id", postID).Msg("post unliked")
	return nil
}

// LikesByPost lists the likes of an existing post with the likers'
// usernames. A failed username lookup leaves that username empty.
func (s *likeService) LikesByPost(ctx context.Context, postID int64) ([]domain.LikeResponse, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	likes, err := s.likes.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(likes))
	var g errgroup.Group
	g.SetLimit(usernameLookups)
	for i, like := range likes {
		g.Go(func() error {
			user, err := s.users.GetUser(ctx, like.UserID)
			if err != nil {
				l := pkglog.Ctx(ctx)
				l.Warn().Err(err).Int64(pkglog.FieldUserID, like.UserID).Msg("username lookup failed; leaving it empty")
				return nil
			}
			names[i] = user.Username
			return nil
		})
	}
	_ = g.Wait()

	resp := make([]domain.LikeResponse, len(likes))
	for i, like := range likes {
		resp[i] = like.ToResponse(names[i])
	}
	return resp, nil
}

func (s *likeService) LikeCount(ctx context.Context, postID int64) (int64, error) {
	return s.likes.CountByPost(ctx, postID)
}

func (s *likeService) HasLiked(ctx context.Context, userID, postID int64) (bool, error) {
	return s.likes.Exists(ctx, userID, postID)
}

func (s *likeService) BatchHasLiked(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	return s.likes.BatchHasLiked(ctx, userID, postIDs)
}

// LikesByUser lists the likes of an existing user.
func (s *likeService) LikesByUser(ctx context.Context, userID int64) ([]domain.LikeResponse, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	likes, err := s.likes.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.LikeResponse, len(likes))
	for i, like := range likes {
		resp[i] = like.ToResponse(user.Username)
	}
	return resp, nil
}

func (s *likeService) RemovePostLikes(ctx context.Context, postID int64) error {
	n, err := s.likes.DeleteByPost(ctx, postID)
	if err != nil {
		return err
	}

	l := pkglog.Ctx(ctx)
	l.Info().Int64("post_id", postID).Int64("removed", n).Msg("removed likes of deleted post")
	return nil
}

var _ LikeService = (*likeService)(nil)
