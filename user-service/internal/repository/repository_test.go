package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/errs"
	"github.com/aryyyy211/microservices-social-media-simplify-version/user-service/internal/domain"
)

func newRepos(t *testing.T) (*GormUserRepository, *GormFollowRepository) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name(), &domain.UserModel{}, &domain.FollowModel{})
	require.NoError(t, err)
	return NewGormUserRepository(db), NewGormFollowRepository(db)
}

func TestUserCreateDuplicates(t *testing.T) {
	ctx := context.Background()
	users, _ := newRepos(t)

	u := &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)

	err := users.Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrEmailExists)

	err = users.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	assert.True(t, errors.Is(err, errs.ErrAlreadyExists))
}

func TestUserDeleteAllowsReRegistration(t *testing.T) {
	ctx := context.Background()
	users, _ := newRepos(t)

	u := &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, users.Delete(ctx, u.ID))

	_, err := users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, users.Delete(ctx, u.ID), ErrUserNotFound)

	require.NoError(t, users.Create(ctx, &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "y"}))
}

func TestFollowUniqueAndCounts(t *testing.T) {
	ctx := context.Background()
	_, follows := newRepos(t)

	f := &domain.Follow{FollowerID: 1, FollowingID: 2}
	require.NoError(t, follows.Create(ctx, f))
	assert.NotZero(t, f.ID)

	err := follows.Create(ctx, &domain.Follow{FollowerID: 1, FollowingID: 2})
	assert.ErrorIs(t, err, ErrAlreadyFollowing)

	require.NoError(t, follows.Create(ctx, &domain.Follow{FollowerID: 3, FollowingID: 2}))
	require.NoError(t, follows.Create(ctx, &domain.Follow{FollowerID: 2, FollowingID: 1}))

	n, err := follows.GetFollowersCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = follows.GetFollowingCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	followers, err := follows.ListFollowers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, int64(3), followers[0].FollowerID)

	status, err := follows.BatchIsFollowing(ctx, 1, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{2: true, 3: false}, status)
}

func TestFollowDelete(t *testing.T) {
	ctx := context.Background()
	_, follows := newRepos(t)

	require.NoError(t, follows.Create(ctx, &domain.Follow{FollowerID: 1, FollowingID: 2}))
	require.NoError(t, follows.Delete(ctx, 1, 2))

	ok, err := follows.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, follows.Delete(ctx, 1, 2), ErrFollowNotFound)
}

func TestUserGetByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	users, _ := newRepos(t)

	a := &domain.User{Username: "a", Email: "a@example.com", PasswordHash: "x"}
	b := &domain.User{Username: "b", Email: "b@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, a))
	require.NoError(t, users.Create(ctx, b))
	require.NoError(t, users.Delete(ctx, b.ID))

	got, err := users.GetByIDs(ctx, []int64{a.ID, b.ID, 404})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[a.ID].Username)
}

// MySQL reports zero affected rows when an update changes nothing.
func TestUserUpdateUnchangedRowIsNotMissing(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenInMemory(t.Name(), &domain.UserModel{})
	require.NoError(t, err)
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:no_rows_affected", func(tx *gorm.DB) {
		tx.RowsAffected = 0
	}))
	users := NewGormUserRepository(db)

	u := &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))

	assert.NoError(t, users.Update(ctx, u))
	assert.ErrorIs(t, users.Update(ctx, &domain.User{ID: u.ID + 100, Username: "ghost", Email: "g@example.com"}), ErrUserNotFound)
}
