package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triplog/internal/models"
)

func TestNotifier_PublishUser_NilClient(t *testing.T) {
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestParseUserChannel(t *testing.T) {
	t.Parallel()

	id, err := ParseUserChannel("notifications:user:42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseUserChannel("notifications:user:not-a-number")
	assert.Error(t, err)
}

func TestNotifier_PatternSubscriber_ReceivesUserMessages(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		atomic.AddInt32(&received, 1)
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 7, "hello"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	select {
	case payload := <-payloads:
		assert.Equal(t, "hello", payload)
	default:
		t.Fatal("expected payload on channel")
	}
}

func TestNotifier_PatternSubscriber_StopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "before-cancel"))
	assert.Eventually(t, func() bool {
		select {
		case <-payloads:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PublishUser(context.Background(), 1, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload == "after-cancel"
		default:
			return false
		}
	}, 200*time.Millisecond, 20*time.Millisecond)
}

type stubNotificationRepo struct {
	createFn func(ctx context.Context, n *models.Notification) error
}

func (s *stubNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}

func (s *stubNotificationRepo) ListByRecipient(context.Context, uint, int, int) ([]*models.Notification, error) {
	return nil, nil
}

func (s *stubNotificationRepo) CountUnread(context.Context, uint) (int64, error) {
	return 0, nil
}

func (s *stubNotificationRepo) MarkRead(context.Context, uint, uint) (bool, error) {
	return false, nil
}

func (s *stubNotificationRepo) MarkAllRead(context.Context, uint) error {
	return nil
}

func TestDispatcher_PersistsAndPublishes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	var stored *models.Notification
	repo := &stubNotificationRepo{
		createFn: func(_ context.Context, n *models.Notification) error {
			n.ID = 99
			stored = n
			return nil
		},
	}

	d := NewDispatcher(repo, NewNotifier(rdb))

	sub := rdb.Subscribe(context.Background(), UserChannel(5))
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()

	d.Dispatch(context.Background(), &models.Notification{
		RecipientID: 5,
		SenderID:    2,
		Type:        models.NotificationComment,
		Title:       "New comment",
		Body:        "Someone commented on your trip",
		TripID:      10,
	})

	require.NotNil(t, stored)
	assert.Equal(t, uint(5), stored.RecipientID)

	select {
	case msg := <-ch:
		var wire map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &wire))
		assert.Equal(t, "comment", wire["type"])
		assert.Equal(t, float64(99), wire["id"])
	case <-time.After(time.Second):
		t.Fatal("expected published notification")
	}
}

func TestDispatcher_SwallowsStoreFailure(t *testing.T) {
	repo := &stubNotificationRepo{
		createFn: func(context.Context, *models.Notification) error {
			return assert.AnError
		},
	}

	d := NewDispatcher(repo, NewNotifier(nil))

	// Must not panic or surface the error.
	d.Dispatch(context.Background(), &models.Notification{
		RecipientID: 1,
		SenderID:    2,
		Type:        models.NotificationFollow,
		Title:       "New follower",
	})
}
