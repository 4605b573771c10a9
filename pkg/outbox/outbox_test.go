package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/database"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/metrics"
	"github.com/aryyyy211/microservices-social-media-simplify-version/pkg/pubsub"
)

type widget struct {
	ID   int64 `gorm:"primaryKey;autoIncrement"`
	Name string
}

type published struct {
	topic string
	event *pubsub.Event
	// rows is the widget count visible when Publish was called.
	rows int64
}

type fakePublisher struct {
	mu   sync.Mutex
	db   *gorm.DB
	err  error
	sent []published
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, e *pubsub.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	if f.db != nil {
		f.db.Model(&widget{}).Count(&n)
	}
	f.sent = append(f.sent, published{topic: topic, event: e, rows: n})
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(t.Name(), &widget{}, &Record{})
	require.NoError(t, err)
	return db
}

func createWidget(name string) func(tx *gorm.DB) ([]Message, error) {
	return func(tx *gorm.DB) ([]Message, error) {
		w := widget{Name: name}
		if err := tx.Create(&w).Error; err != nil {
			return nil, err
		}
		m, err := NewMessage(pubsub.TopicPostCreated, pubsub.EventPostCreated, pubsub.PostCreatedPayload{PostID: w.ID, Content: name})
		if err != nil {
			return nil, err
		}
		return []Message{m}, nil
	}
}

func TestDirectPublishesAfterCommit(t *testing.T) {
	db := newDB(t)
	pub := &fakePublisher{db: db}
	em, err := NewEmitter(db, pub, "")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, em.Mode())

	require.NoError(t, em.Execute(context.Background(), createWidget("a")))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, pubsub.TopicPostCreated, pub.sent[0].topic)
	assert.Equal(t, int64(1), pub.sent[0].rows, "row must be committed before publish")
}

func TestDirectSwallowsPublishFailure(t *testing.T) {
	db := newDB(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	em, err := NewEmitter(db, pub, ModeDirect)
	require.NoError(t, err)

	require.NoError(t, em.Execute(context.Background(), createWidget("a")))

	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.Len(t, pub.sent, 1)
}

func TestNothingPublishedWhenMutationFails(t *testing.T) {
	db := newDB(t)
	pub := &fakePublisher{}
	em, err := NewEmitter(db, pub, ModeDirect)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = em.Execute(context.Background(), func(tx *gorm.DB) ([]Message, error) {
		if err := tx.Create(&widget{Name: "x"}).Error; err != nil {
			return nil, err
		}
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, pub.sent)

	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Zero(t, n, "transaction must roll back")
}

func TestOutboxModeRelay(t *testing.T) {
	db := newDB(t)
	pub := &fakePublisher{}
	em, err := NewEmitter(db, pub, ModeOutbox)
	require.NoError(t, err)

	require.NoError(t, em.Execute(context.Background(), createWidget("a")))
	assert.Empty(t, pub.sent, "outbox mode must not publish inline")

	var rows []Record
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].ProcessedAt)

	m := metrics.NewOutboxMetrics(prometheus.NewRegistry())
	relay := NewRelay(NewStore(db), pub, RelayConfig{}, m)

	n, err := relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, pubsub.EventPostCreated, pub.sent[0].event.Type)
	assert.Equal(t, rows[0].EventTime.UTC(), pub.sent[0].event.Timestamp)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues(pubsub.TopicPostCreated, metrics.StatusSuccess)))

	// Processed rows are not relayed again.
	n, err = relay.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, pub.sent, 1)
}

func TestRelayGivesUpAfterMaxRetries(t *testing.T) {
	db := newDB(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	em, err := NewEmitter(db, pub, ModeOutbox)
	require.NoError(t, err)
	require.NoError(t, em.Execute(context.Background(), createWidget("a")))

	relay := NewRelay(NewStore(db), pub, RelayConfig{MaxRetries: 2}, nil)

	for i := 0; i < 3; i++ {
		_, err := relay.ProcessOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, pub.sent, 2)

	var rec Record
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, 2, rec.RetryCount)
	assert.Equal(t, "broker down", rec.LastError)
	assert.True(t, rec.GaveUp)
	assert.NotNil(t, rec.ProcessedAt)
}

func TestStoreStatsAndCleanup(t *testing.T) {
	db := newDB(t)
	store := NewStore(db)
	em, err := NewEmitter(db, &fakePublisher{}, ModeOutbox)
	require.NoError(t, err)
	require.NoError(t, em.Execute(context.Background(), createWidget("a")))

	count, oldest, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.False(t, oldest.IsZero())

	rows, err := store.Poll(context.Background(), 10)
	require.NoError(t, err)
	require.NoError(t, store.MarkProcessed(context.Background(), rows[0].ID, false))

	deleted, err := store.Cleanup(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestNewEmitterRejectsUnknownMode(t *testing.T) {
	_, err := NewEmitter(nil, &fakePublisher{}, "kafka")
	assert.Error(t, err)
}
