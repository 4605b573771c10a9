package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/outbox"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/peer"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/storage"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/cache"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/post-service/internal/repository"
)

const publicURL = "http://localhost:8082/uploads"

// fakeUsers answers lookups from a map. err, when set, is returned for
// every lookup.
type fakeUsers struct {
	users map[int64]string
	err   error
}

func (f *fakeUsers) GetUser(_ context.Context, id int64) (*peer.UserView, error) {
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.users[id]
	if !ok {
		return nil, errs.Newf(errs.ErrNotFound, "user %d not found", id)
	}
	return &peer.UserView{ID: id, Username: name}, nil
}

type fixture struct {
	svc    PostService
	images ImageService
	repo   *repository.GormPostRepository
	users  *fakeUsers
	bus    *pubsub.MemoryBus
	store  *storage.LocalStorage
}

func newFixture(t *testing.T, postCache cache.PostCache) *fixture {
	t.Helper()

	db, err := database.OpenInMemory(t.Name(), &domain.PostModel{})
	require.NoError(t, err)
	bus := pubsub.NewMemoryBus()
	em, err := outbox.NewEmitter(db, bus, outbox.ModeDirect)
	require.NoError(t, err)
	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), PublicURL: publicURL})
	require.NoError(t, err)

	users := &fakeUsers{users: map[int64]string{1: "alice", 2: "bob"}}
	repo := repository.NewGormPostRepository(db)

	return &fixture{
		svc:    NewPostService(repo, users, em, st, postCache, time.Minute),
		images: NewImageService(st, 0, 16),
		repo:   repo,
		users:  users,
		bus:    bus,
		store:  st,
	}
}

func TestCreatePostPublishesEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	post, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: 1, Content: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "alice", post.Username)

	events := f.bus.Events(pubsub.TopicPostCreated)
	require.Len(t, events, 1)
	assert.Equal(t, pubsub.EventPostCreated, events[0].Type)

	var payload pubsub.PostCreatedPayload
	require.NoError(t, events[0].UnmarshalPayload(&payload))
	assert.Equal(t, post.ID, payload.PostID)
	assert.Equal(t, int64(1), payload.UserID)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, "hello", payload.Content)
}

func TestCreatePostAuthorLookupFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: 9, Content: "hello"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	f.users.err = errs.New(errs.ErrDependencyUnavailable, "user-service unavailable")
	_, err = f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: 1, Content: "hello"})
	assert.ErrorIs(t, err, errs.ErrDependencyUnavailable)

	posts, total, err := f.repo.List(ctx, 1, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, posts)
	assert.Empty(t, f.bus.Events(pubsub.TopicPostCreated))
}

func TestGetPostDegradesUsername(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	created, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: 2, Content: "hi"})
	require.NoError(t, err)

	f.users.err = errs.New(errs.ErrDependencyUnavailable, "user-service unavailable")
	got, err := f.svc.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)
	assert.Empty(t, got.Username)

	_, err = f.svc.GetPost(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}

func TestGetPostUsesCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pc := cache.NewRedisPostCache(client, "post")
	f := newFixture(t, pc)

	created, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: 1, Content: "cached"})
	require.NoError(t, err)

	_, err = f.svc.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(pc.BuildKeyByID(created.ID)))

	content := "changed"
	_, err = f.svc.UpdatePost(ctx, created.ID, &domain.UpdatePostRequest{Content: &content})
	require.NoError(t, err)
	assert.False(t, mr.Exists(pc.BuildKeyByID(created.ID)))

	got, err := f.svc.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Content)

	require.NoError(t, f.svc.DeletePost(ctx, created.ID))
	assert.False(t, mr.Exists(pc.BuildKeyByID(created.ID)))
	_, err = f.svc.GetPost(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for _, uid := range []int64{1, 2, 1} {
		_, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{UserID: uid, Content: "p"})
		require.NoError(t, err)
	}

	all, err := f.svc.ListPosts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 1, all.TotalPages)
	require.Len(t, all.Posts, 3)
	assert.Equal(t, "alice", all.Posts[0].Username)
	assert.Equal(t, "bob", all.Posts[1].Username)

	paged, err := f.svc.ListPosts(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, paged.Posts, 2)
	assert.Equal(t, 2, paged.TotalPages)

	mine, err := f.svc.ListUserPosts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.ListUserPosts(ctx, 42)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	require.NoError(t, f.store.Write(ctx, "posts/1/old.png", strings.NewReader("img"), 3, "image/png"))
	created, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{
		UserID: 1, Content: "first", ImageURL: f.store.ObjectURL("posts/1/old.png"),
	})
	require.NoError(t, err)

	empty := ""
	newURL := "https://cdn.example.com/elsewhere.png"
	updated, err := f.svc.UpdatePost(ctx, created.ID, &domain.UpdatePostRequest{Content: &empty, ImageURL: &newURL})
	require.NoError(t, err)
	assert.Equal(t, "first", updated.Content)
	assert.Equal(t, newURL, updated.ImageURL)

	exists, err := f.store.Exists(ctx, "posts/1/old.png")
	require.NoError(t, err)
	assert.False(t, exists)

	content := "x"
	_, err = f.svc.UpdatePost(ctx, 999, &domain.UpdatePostRequest{Content: &content})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeletePostRemovesImageAndPublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	require.NoError(t, f.store.Write(ctx, "posts/2/pic.jpg", strings.NewReader("img"), 3, "image/jpeg"))
	created, err := f.svc.CreatePost(ctx, &domain.CreatePostRequest{
		UserID: 2, Content: "bye", ImageURL: f.store.ObjectURL("posts/2/pic.jpg"),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePost(ctx, created.ID))

	exists, err := f.store.Exists(ctx, "posts/2/pic.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	events := f.bus.Events(pubsub.TopicPostDeleted)
	require.Len(t, events, 1)
	var payload pubsub.PostDeletedPayload
	require.NoError(t, events[0].UnmarshalPayload(&payload))
	assert.Equal(t, created.ID, payload.PostID)
	assert.Equal(t, int64(2), payload.UserID)

	assert.ErrorIs(t, f.svc.DeletePost(ctx, created.ID), errs.ErrNotFound)
	assert.Len(t, f.bus.Events(pubsub.TopicPostDeleted), 1)
}

func TestImageService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	resp, err := f.images.PresignUpload(ctx, &domain.PresignImageRequest{UserID: 1, ContentType: "image/png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Key, "posts/1/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".png"))
	assert.Equal(t, publicURL+"/"+resp.Key, resp.ImageURL)
	assert.Equal(t, 900, resp.ExpiresIn)

	_, err = f.images.PresignUpload(ctx, &domain.PresignImageRequest{UserID: 1, ContentType: "text/plain"})
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)

	require.NoError(t, f.images.Upload(ctx, resp.Key, bytes.NewReader([]byte("png")), 3, "image/png"))
	exists, err := f.store.Exists(ctx, resp.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	err = f.images.Upload(ctx, "other/1/x.png", bytes.NewReader([]byte("png")), 3, "image/png")
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)

	err = f.images.Upload(ctx, resp.Key, bytes.NewReader([]byte("png")), 3, "text/html")
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)

	big := bytes.Repeat([]byte("x"), 32)
	err = f.images.Upload(ctx, resp.Key, bytes.NewReader(big), int64(len(big)), "image/png")
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)
}
