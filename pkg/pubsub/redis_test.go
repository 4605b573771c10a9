package pubsub

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStreamRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	pub := NewRedisStreamPublisher(client, 1000)

	sub := NewRedisStreamSubscriber(client, "notification-group", RedisConfig{
		Block:        20 * time.Millisecond,
		ConsumerName: "c1",
	}, time.Millisecond)

	got := make(chan PostLikedPayload, 1)
	sub.Handle(TopicPostLiked, func(ctx context.Context, e *Event) error {
		var p PostLikedPayload
		if err := e.UnmarshalPayload(&p); err != nil {
			return err
		}
		got <- p
		return nil
	})
	require.NoError(t, sub.Start(context.Background()))
	defer sub.Close()

	e, err := NewEvent(EventPostLiked, PostLikedPayload{PostID: 10, UserID: 2, Username: "bob", PostOwnerID: 1})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), TopicPostLiked, e))

	select {
	case p := <-got:
		assert.Equal(t, int64(10), p.PostID)
		assert.Equal(t, int64(1), p.PostOwnerID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), TopicPostLiked, "notification-group").Result()
		return err == nil && pending.Count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRedisStreamRedeliversFailedEntry(t *testing.T) {
	client := newTestRedis(t)
	pub := NewRedisStreamPublisher(client, 0)

	sub := NewRedisStreamSubscriber(client, "g", RedisConfig{
		Block:        20 * time.Millisecond,
		ConsumerName: "c1",
	}, time.Millisecond)

	var calls atomic.Int32
	sub.Handle(TopicUserFollowed, func(ctx context.Context, e *Event) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, sub.Start(context.Background()))
	defer sub.Close()

	publishFollow(t, pub, 1, 2)

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), TopicUserFollowed, "g").Result()
		return err == nil && pending.Count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRedisStreamSkipsUndecodable(t *testing.T) {
	client := newTestRedis(t)

	sub := NewRedisStreamSubscriber(client, "g", RedisConfig{
		Block:        20 * time.Millisecond,
		ConsumerName: "c1",
	}, time.Millisecond)

	var calls atomic.Int32
	sub.Handle(TopicPostCreated, func(ctx context.Context, e *Event) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, sub.Start(context.Background()))
	defer sub.Close()

	require.NoError(t, client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: TopicPostCreated,
		Values: map[string]interface{}{streamField: "{broken"},
	}).Err())

	e, err := NewEvent(EventPostCreated, PostCreatedPayload{PostID: 1, UserID: 1, Content: "ok"})
	require.NoError(t, err)
	require.NoError(t, NewRedisStreamPublisher(client, 0).Publish(context.Background(), TopicPostCreated, e))

	// The broken entry precedes the good one, so handling the good one
	// means the broken one was skipped rather than retried forever.
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		pending, err := client.XPending(context.Background(), TopicPostCreated, "g").Result()
		return err == nil && pending.Count == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRedisStreamFailingTopicDoesNotBlockOthers(t *testing.T) {
	client := newTestRedis(t)
	pub := NewRedisStreamPublisher(client, 0)

	sub := NewRedisStreamSubscriber(client, "g", RedisConfig{
		Block:        20 * time.Millisecond,
		ConsumerName: "c1",
	}, 5*time.Millisecond)

	var likeAttempts, follows atomic.Int32
	sub.Handle(TopicPostLiked, func(ctx context.Context, e *Event) error {
		likeAttempts.Add(1)
		return errors.New("notifications store down")
	})
	sub.Handle(TopicUserFollowed, func(ctx context.Context, e *Event) error {
		follows.Add(1)
		return nil
	})
	require.NoError(t, sub.Start(context.Background()))
	defer sub.Close()

	e, err := NewEvent(EventPostLiked, PostLikedPayload{PostID: 9, UserID: 5, PostOwnerID: 2})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), TopicPostLiked, e))
	assert.Eventually(t, func() bool { return likeAttempts.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	publishFollow(t, pub, 1, 2)
	publishFollow(t, pub, 3, 2)

	assert.Eventually(t, func() bool { return follows.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	// The failing entry keeps being retried and is never acknowledged.
	assert.Eventually(t, func() bool { return likeAttempts.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	pending, err := client.XPending(context.Background(), TopicPostLiked, "g").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestRedisStreamHandlerErrorIsNotAReadError(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)

	sub := NewRedisStreamSubscriber(client, "g", RedisConfig{ConsumerName: "c1"}, time.Minute)
	sub.Handle(TopicPostLiked, func(ctx context.Context, e *Event) error {
		return errors.New("transient")
	})
	require.NoError(t, client.XGroupCreateMkStream(ctx, TopicPostLiked, "g", "0").Err())

	e, err := NewEvent(EventPostLiked, PostLikedPayload{PostID: 9, UserID: 5, PostOwnerID: 2})
	require.NoError(t, err)
	require.NoError(t, NewRedisStreamPublisher(client, 0).Publish(ctx, TopicPostLiked, e))

	states := map[string]*topicState{TopicPostLiked: {}}
	require.NoError(t, sub.readOnce(ctx, []string{TopicPostLiked}, ">", -1, states))

	st := states[TopicPostLiked]
	assert.True(t, st.pending)
	assert.True(t, st.retryAt.After(time.Now()))

	// History still holds the entry, so the topic stays pending.
	st.retryAt = time.Time{}
	require.NoError(t, sub.readOnce(ctx, []string{TopicPostLiked}, "0", -1, states))
	assert.True(t, st.pending)
}
