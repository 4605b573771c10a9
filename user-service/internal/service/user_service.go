package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/log"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/audit"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/repository"
)

var ErrWrongPassword = errs.New(errs.ErrInvalidOperation, "current password is incorrect")

// userServiceImpl implements UserService interface.
type userServiceImpl struct {
	repo     repository.UserRepository
	cache    cache.UserCache
	cacheTTL time.Duration
}

// NewUserService creates a new user service. userCache may be nil.
func NewUserService(repo repository.UserRepository, userCache cache.UserCache, cacheTTL time.Duration) UserService {
	if userCache == nil {
		userCache = cache.NopUserCache{}
	}
	return &userServiceImpl{
		repo:     repo,
		cache:    userCache,
		cacheTTL: cacheTTL,
	}
}

// Register registers a new user.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		Bio:          req.Bio,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, errs.ErrAlreadyExists) {
			l.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	resp := user.ToResponse()
	return &resp, nil
}

// GetUser retrieves a user by ID, serving from the profile cache when possible.
func (s *userServiceImpl) GetUser(ctx context.Context, userID int64) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)
	key := s.cache.BuildKeyByID(userID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		resp := cached.User.ToResponse()
		return &resp, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("user cache get failed")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to get user")
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, key, &cache.UserCacheResult{User: *user}, s.cacheTTL); err != nil {
		l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("user cache set failed")
	}

	resp := user.ToResponse()
	return &resp, nil
}

// GetUserByUsername retrieves a user by username.
func (s *userServiceImpl) GetUserByUsername(ctx context.Context, username string) (*domain.UserResponse, error) {
	return s.lookup(ctx, s.repo.GetByUsername, username)
}

// GetUserByEmail retrieves a user by email.
func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.UserResponse, error) {
	return s.lookup(ctx, s.repo.GetByEmail, email)
}

func (s *userServiceImpl) lookup(ctx context.Context, get func(context.Context, string) (*domain.User, error), value string) (*domain.UserResponse, error) {
	user, err := get(ctx, value)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l := log.Ctx(ctx)
			l.Error().Err(err).Msg("failed to look up user")
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// ListUsers returns every active user.
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list users")
		return nil, err
	}

	resp := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, u.ToResponse())
	}
	return resp, nil
}

// UpdateUser updates a user.
func (s *userServiceImpl) UpdateUser(ctx context.Context, userID int64, req *domain.UpdateUserRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to get user for update")
		}
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfileImageURL != nil {
		user.ProfileImageURL = *req.ProfileImageURL
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if !errors.Is(err, errs.ErrAlreadyExists) {
			l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to update user")
		}
		return nil, err
	}

	s.invalidate(ctx, userID)
	audit.Log(ctx, audit.ActionUpdateProfile, userID, "profile updated")

	resp := user.ToResponse()
	return &resp, nil
}

// ChangePassword changes user password after verifying current password.
func (s *userServiceImpl) ChangePassword(ctx context.Context, userID int64, req *domain.ChangePasswordRequest) error {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to get user for password change")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash new password")
		return err
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.repo.Update(ctx, user); err != nil {
		l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to update password")
		return err
	}

	audit.Log(ctx, audit.ActionChangePassword, userID, "password changed")
	return nil
}

// DeleteUser deletes a user.
func (s *userServiceImpl) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			l := log.Ctx(ctx)
			l.Error().Err(err).Int64(log.FieldUserID, userID).Msg("failed to delete user")
		}
		return err
	}

	s.invalidate(ctx, userID)
	audit.Log(ctx, audit.ActionDeleteAccount, userID, "account deleted")
	return nil
}

func (s *userServiceImpl) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, s.cache.BuildKeyByID(userID)); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Int64(log.FieldUserID, userID).Msg("user cache invalidation failed")
	}
}
