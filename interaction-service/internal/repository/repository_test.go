package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryyyy211/microservices-social-media-simplify-version/interaction-service/internal/domain"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
)

func newRepo(t *testing.T) *GormLikeRepository {
	t.Helper()
	db, err := database.OpenInMemory(t.Name(), &domain.LikeModel{})
	require.NoError(t, err)
	return NewGormLikeRepository(db)
}

func TestLikeUniquePair(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	like := &domain.Like{UserID: 5, PostID: 9}
	require.NoError(t, repo.Create(ctx, like))
	assert.NotZero(t, like.ID)
	assert.False(t, like.CreatedAt.IsZero())

	err := repo.Create(ctx, &domain.Like{UserID: 5, PostID: 9})
	assert.ErrorIs(t, err, ErrLikeExists)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, repo.Create(ctx, &domain.Like{UserID: 6, PostID: 9}))
	require.NoError(t, repo.Create(ctx, &domain.Like{UserID: 5, PostID: 10}))

	n, err := repo.CountByPost(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := repo.Exists(ctx, 5, 9)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, 6, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeDeleteAndLists(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for _, l := range []domain.Like{{UserID: 1, PostID: 1}, {UserID: 2, PostID: 1}, {UserID: 1, PostID: 2}} {
		require.NoError(t, repo.Create(ctx, &l))
	}

	byPost, err := repo.ListByPost(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byPost, 2)
	assert.Equal(t, int64(2), byPost[0].UserID)

	byUser, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, int64(2), byUser[0].PostID)

	status, err := repo.BatchHasLiked(ctx, 1, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: false}, status)

	require.NoError(t, repo.Delete(ctx, 1, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1, 1), ErrLikeNotFound)

	removed, err := repo.DeleteByPost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.DeleteByPost(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
