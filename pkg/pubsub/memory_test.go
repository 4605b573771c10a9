package pubsub

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishFollow(t *testing.T, p Publisher, follower, following int64) {
	t.Helper()
	e, err := NewEvent(EventUserFollowed, UserFollowedPayload{FollowerID: follower, FollowingID: following})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), TopicUserFollowed, e))
}

func TestMemoryBusRedeliversAfterFailure(t *testing.T) {
	bus := NewMemoryBus()
	publishFollow(t, bus, 1, 2)

	sub := bus.Subscriber("notification-group", 0)
	calls := 0
	sub.Handle(TopicUserFollowed, func(ctx context.Context, e *Event) error {
		calls++
		if calls == 1 {
			return errors.New("db down")
		}
		return nil
	})

	n, err := sub.Poll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	n, err = sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)

	// Committed; nothing left.
	n, err = sub.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryBusGroupsAreIndependent(t *testing.T) {
	bus := NewMemoryBus()
	publishFollow(t, bus, 1, 2)
	publishFollow(t, bus, 1, 3)

	a := bus.Subscriber("a", 0)
	b := bus.Subscriber("b", 0)
	noop := func(context.Context, *Event) error { return nil }
	a.Handle(TopicUserFollowed, noop)
	b.Handle(TopicUserFollowed, noop)

	n, err := a.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Len(t, bus.Events(TopicUserFollowed), 2)
}

func TestMemorySubscriberStart(t *testing.T) {
	bus := NewMemoryBus()
	sub := bus.Subscriber("g", time.Millisecond)

	var got atomic.Int32
	sub.Handle(TopicPostCreated, func(ctx context.Context, e *Event) error {
		got.Add(1)
		return nil
	})
	require.NoError(t, sub.Start(context.Background()))
	defer sub.Close()

	e, err := NewEvent(EventPostCreated, PostCreatedPayload{PostID: 1, UserID: 1, Content: "hi"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), TopicPostCreated, e))

	assert.Eventually(t, func() bool { return got.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())

	e, err := NewEvent(EventPostDeleted, PostDeletedPayload{PostID: 1})
	require.NoError(t, err)
	assert.Error(t, bus.Publish(context.Background(), TopicPostDeleted, e))
}

func TestStartWithoutHandlers(t *testing.T) {
	sub := NewMemoryBus().Subscriber("g", 0)
	assert.Error(t, sub.Start(context.Background()))
}
