package service

import (
	"context"

	"triplog/internal/models"
	"triplog/internal/repository"
)

// NotificationService reads and marks stored notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ListMine returns the recipient's notifications, newest first.
func (s *NotificationService) ListMine(ctx context.Context, userID uint, page, pageSize int) ([]*models.Notification, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.notificationRepo.ListByRecipient(ctx, userID, pageSize, (page-1)*pageSize)
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read; marking another user's
// notification is not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	updated, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return models.NewNotFoundError("notification", notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
