package service

import (
	"context"
	"testing"

	"triplog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	listFn        func(context.Context, uint, int, int) ([]*models.Notification, error)
	countUnreadFn func(context.Context, uint) (int64, error)
	markReadFn    func(context.Context, uint, uint) (bool, error)
	markAllFn     func(context.Context, uint) error
}

func (s *notificationRepoStub) Create(context.Context, *models.Notification) error { return nil }
func (s *notificationRepoStub) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]*models.Notification, error) {
	return s.listFn(ctx, recipientID, limit, offset)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return s.countUnreadFn(ctx, recipientID)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, recipientID, id uint) (bool, error) {
	return s.markReadFn(ctx, recipientID, id)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, recipientID uint) error {
	return s.markAllFn(ctx, recipientID)
}

func TestNotificationService_ListMine_Paging(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	repo := &notificationRepoStub{
		listFn: func(_ context.Context, _ uint, limit, offset int) ([]*models.Notification, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.Notification{{ID: 1}}, nil
		},
	}
	svc := NewNotificationService(repo)

	out, err := svc.ListMine(context.Background(), 1, 3, 20)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 20, gotLimit)
	assert.Equal(t, 40, gotOffset)
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unowned notification is not found", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{
			markReadFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		}
		svc := NewNotificationService(repo)

		err := svc.MarkRead(ctx, 1, 99)
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("owned notification is marked", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{
			markReadFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
		}
		svc := NewNotificationService(repo)
		assert.NoError(t, svc.MarkRead(ctx, 1, 5))
	})
}
