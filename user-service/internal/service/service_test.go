package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/repository"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/store"
)

// recordingPublisher notes how many follows were visible when each event
// was published.
type recordingPublisher struct {
	mu      sync.Mutex
	db      *gorm.DB
	err     error
	events  []*pubsub.Event
	visible []int64
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var n int64
	p.db.Model(&domain.FollowModel{}).Count(&n)
	p.events = append(p.events, e)
	p.visible = append(p.visible, n)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// racingFollowRepo never sees an existing follow, as if a concurrent request
// committed between the duplicate check and the insert.
type racingFollowRepo struct {
	repository.FollowRepository
}

func (racingFollowRepo) IsFollowing(context.Context, int64, int64) (bool, error) {
	return false, nil
}

type fixture struct {
	db      *gorm.DB
	users   *repository.GormUserRepository
	follows repository.FollowRepository
	pub     *recordingPublisher
	userSvc UserService
	svc     FollowService
}

func newFixture(t *testing.T, followStore store.FollowStore) *fixture {
	t.Helper()
	db, err := database.OpenInMemory(t.Name(), &domain.UserModel{}, &domain.FollowModel{})
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		users:   repository.NewGormUserRepository(db),
		follows: repository.NewGormFollowRepository(db),
		pub:     &recordingPublisher{db: db},
	}
	em, err := outbox.NewEmitter(db, f.pub, outbox.ModeDirect)
	require.NoError(t, err)

	f.userSvc = NewUserService(f.users, nil, 0)
	f.svc = NewFollowService(f.users, f.follows, followStore, em)
	return f
}

func (f *fixture) register(t *testing.T, name string) int64 {
	t.Helper()
	u, err := f.userSvc.Register(context.Background(), &domain.RegisterRequest{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u.ID
}

func TestFollowPublishesAfterCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	resp, err := f.svc.Follow(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, alice, resp.FollowerID)
	assert.Equal(t, bob, resp.FollowingID)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, []int64{1}, f.pub.visible, "event published only after the row committed")

	e := f.pub.events[0]
	assert.Equal(t, pubsub.EventUserFollowed, e.Type)
	var p pubsub.UserFollowedPayload
	require.NoError(t, e.UnmarshalPayload(&p))
	assert.Equal(t, alice, p.FollowerID)
	assert.Equal(t, bob, p.FollowingID)
	assert.Equal(t, "alice", p.FollowerUsername)
	assert.Equal(t, "bob", p.FollowingUsername)
}

func TestFollowSelfIsRejectedFirst(t *testing.T) {
	f := newFixture(t, nil)

	// Neither user exists; self-follow still wins.
	_, err := f.svc.Follow(context.Background(), 42, 42)
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)
	assert.Empty(t, f.pub.events)
}

func TestFollowErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	_, err := f.svc.Follow(ctx, alice, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Follow(ctx, alice, bob)
	require.NoError(t, err)
	_, err = f.svc.Follow(ctx, alice, bob)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	assert.Len(t, f.pub.events, 1)
}

func TestFollowRaceHitsConstraint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	em, err := outbox.NewEmitter(f.db, f.pub, outbox.ModeDirect)
	require.NoError(t, err)
	racing := NewFollowService(f.users, racingFollowRepo{f.follows}, nil, em)

	_, err = racing.Follow(ctx, alice, bob)
	require.NoError(t, err)
	_, err = racing.Follow(ctx, alice, bob)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	n, err := f.follows.GetFollowersCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, f.pub.events, 1, "losing insert publishes nothing")
}

func TestFollowSucceedsWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.pub.err = errors.New("broker down")

	_, err := f.svc.Follow(ctx, alice, bob)
	require.NoError(t, err)

	ok, err := f.svc.IsFollowing(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnfollowPublishesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	assert.ErrorIs(t, f.svc.Unfollow(ctx, alice, bob), errs.ErrNotFound)

	_, err := f.svc.Follow(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, f.svc.Unfollow(ctx, alice, bob))
	assert.Len(t, f.pub.events, 1)

	ok, err := f.svc.IsFollowing(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowListsAndStats(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	counts := store.NewRedisFollowStore(client)

	f := newFixture(t, counts)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	_, err := f.svc.Follow(ctx, alice, carol)
	require.NoError(t, err)
	_, err = f.svc.Follow(ctx, bob, carol)
	require.NoError(t, err)

	followers, err := f.svc.GetFollowers(ctx, carol)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "bob", followers[0].Username)

	following, err := f.svc.GetFollowing(ctx, alice)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)

	stats, err := f.svc.GetStats(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.FollowersCount)
	assert.Equal(t, int64(0), stats.FollowingCount)

	// The count is now cached and follows adjust it.
	require.NoError(t, f.svc.Unfollow(ctx, bob, carol))
	cached, found, err := counts.GetFollowersCount(ctx, carol)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1), cached)

	_, err = f.svc.GetStats(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = f.svc.GetFollowers(ctx, 999)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	status, err := f.svc.BatchIsFollowing(ctx, alice, []int64{bob, carol})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{bob: false, carol: true}, status)
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	db, err := database.OpenInMemory(t.Name(), &domain.UserModel{})
	require.NoError(t, err)
	userCache := cache.NewRedisUserCache(client, "user")
	svc := NewUserService(repository.NewGormUserRepository(db), userCache, 0)

	u, err := svc.Register(ctx, &domain.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1", Bio: "hi"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Username: "alice", Email: "a2@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Bio)
	assert.True(t, mr.Exists(userCache.BuildKeyByID(u.ID)))

	bio := "updated"
	updated, err := svc.UpdateUser(ctx, u.ID, &domain.UpdateUserRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Bio)
	assert.False(t, mr.Exists(userCache.BuildKeyByID(u.ID)), "update invalidates the cached profile")

	got, err = svc.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	err = svc.ChangePassword(ctx, u.ID, &domain.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "secret2"})
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, &domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}))

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err = svc.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), errs.ErrNotFound)
}
