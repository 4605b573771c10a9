package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/audit"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/repository"
)

const maxPageSize = 100

// postServiceImpl implements PostService interface.
type postServiceImpl struct {
	repo     repository.PostRepository
	users    peer.UserLookup
	emitter  *outbox.Emitter
	images   storage.Storage
	cache    cache.PostCache
	cacheTTL time.Duration
}

// NewPostService creates a new post service. images and postCache may be nil.
func NewPostService(repo repository.PostRepository, users peer.UserLookup, emitter *outbox.Emitter, images storage.Storage, postCache cache.PostCache, cacheTTL time.Duration) PostService {
	if postCache == nil {
		postCache = cache.NopPostCache{}
	}
	return &postServiceImpl{
		repo:     repo,
		users:    users,
		emitter:  emitter,
		images:   images,
		cache:    postCache,
		cacheTTL: cacheTTL,
	}
}

// CreatePost verifies the author with user-service, stores the post and
// announces it.
func (s *postServiceImpl) CreatePost(ctx context.Context, req *domain.CreatePostRequest) (*domain.PostResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		UserID:   req.UserID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}

	err = s.emitter.Execute(ctx, func(tx *gorm.DB) ([]outbox.Message, error) {
		if err := s.repo.WithTx(tx).Create(ctx, post); err != nil {
			return nil, err
		}

		msg, err := outbox.NewMessage(pubsub.TopicPostCreated, pubsub.EventPostCreated, pubsub.PostCreatedPayload{
			PostID:    post.ID,
			UserID:    post.UserID,
			Username:  user.Username,
			Content:   post.Content,
			ImageURL:  post.ImageURL,
			EventTime: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return []outbox.Message{msg}, nil
	})
	if err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, req.UserID).Msg("failed to create post")
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreatePost, post.UserID, post.ID, "post created")

	resp := post.ToResponse(user.Username)
	return &resp, nil
}

// GetPost is also what other services reach through the post lookup
// endpoint. A failed username lookup leaves the username empty.
func (s *postServiceImpl) GetPost(ctx context.Context, postID int64) (*domain.PostResponse, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	resp := post.ToResponse(s.username(ctx, post.UserID))
	return &resp, nil
}

func (s *postServiceImpl) getPost(ctx context.Context, postID int64) (*domain.Post, error) {
	l := log.Ctx(ctx)
	key := s.cache.BuildKeyByID(postID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return &cached.Post, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Int64("post_id", postID).Msg("post cache get failed")
	}

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, &cache.PostCacheResult{Post: *post}, s.cacheTTL); err != nil {
		l.Warn().Err(err).Int64("post_id", postID).Msg("post cache set failed")
	}
	return post, nil
}

func (s *postServiceImpl) username(ctx context.Context, userID int64) string {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("username lookup failed; leaving it empty")
		return ""
	}
	return user.Username
}

// ListPosts lists posts newest first. A zero pageSize lists every post.
func (s *postServiceImpl) ListPosts(ctx context.Context, page, pageSize int) (*domain.ListPostsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	posts, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	postResponses := make([]domain.PostResponse, len(posts))
	for i := range posts {
		name, ok := names[posts[i].UserID]
		if !ok {
			name = s.username(ctx, posts[i].UserID)
			names[posts[i].UserID] = name
		}
		postResponses[i] = posts[i].ToResponse(name)
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return &domain.ListPostsResponse{
		Posts:      postResponses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ListUserPosts lists a user's posts. The user must exist.
func (s *postServiceImpl) ListUserPosts(ctx context.Context, userID int64) ([]domain.PostResponse, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	postResponses := make([]domain.PostResponse, len(posts))
	for i := range posts {
		postResponses[i] = posts[i].ToResponse(user.Username)
	}
	return postResponses, nil
}

// UpdatePost changes content and image URL. A replaced image is removed
// from storage.
func (s *postServiceImpl) UpdatePost(ctx context.Context, postID int64, req *domain.UpdatePostRequest) (*domain.PostResponse, error) {
	l := log.Ctx(ctx)

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	oldImage := post.ImageURL
	if req.Content != nil && *req.Content != "" {
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			l.Error().Err(err).Int64("post_id", postID).Msg("failed to update post")
		}
		return nil, err
	}

	s.invalidate(ctx, postID)
	if oldImage != post.ImageURL {
		s.deleteImage(ctx, oldImage)
	}
	audit.Log(ctx, audit.ActionUpdatePost, post.UserID, post.ID, "post updated")

	resp := post.ToResponse(s.username(ctx, post.UserID))
	return &resp, nil
}

// DeletePost removes a post, announces it and drops its image.
func (s *postServiceImpl) DeletePost(ctx context.Context, postID int64) error {
	l := log.Ctx(ctx)

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	err = s.emitter.Execute(ctx, func(tx *gorm.DB) ([]outbox.Message, error) {
		if err := s.repo.WithTx(tx).Delete(ctx, postID); err != nil {
			return nil, err
		}

		msg, err := outbox.NewMessage(pubsub.TopicPostDeleted, pubsub.EventPostDeleted, pubsub.PostDeletedPayload{
			PostID:    post.ID,
			UserID:    post.UserID,
			EventTime: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		return []outbox.Message{msg}, nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			l.Error().Err(err).Int64("post_id", postID).Msg("failed to delete post")
		}
		return err
	}

	s.invalidate(ctx, postID)
	s.deleteImage(ctx, post.ImageURL)
	audit.Log(ctx, audit.ActionDeletePost, post.UserID, post.ID, "post deleted")
	return nil
}

func (s *postServiceImpl) invalidate(ctx context.Context, postID int64) {
	if err := s.cache.Delete(ctx, s.cache.BuildKeyByID(postID)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int64("post_id", postID).Msg("post cache invalidation failed")
	}
}

// deleteImage removes an image this service stored. URLs pointing elsewhere
// are left alone.
func (s *postServiceImpl) deleteImage(ctx context.Context, imageURL string) {
	if s.images == nil || imageURL == "" {
		return
	}
	key, ok := s.images.KeyFromURL(imageURL)
	if !ok {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("failed to delete post image")
	}
}
