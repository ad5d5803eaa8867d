package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"triplog/internal/middleware"
	"triplog/internal/models"
	"triplog/internal/repository"
)

// Sender delivers a notification to its recipient. Delivery is best effort:
// implementations must never propagate failures back into the write path
// that triggered the notification.
type Sender interface {
	Dispatch(ctx context.Context, notification *models.Notification)
}

// Dispatcher persists notifications and pushes them to connected clients
// through the per-user Redis channel.
type Dispatcher struct {
	repo     repository.NotificationRepository
	notifier *Notifier
}

// NewDispatcher creates a Dispatcher from its collaborators.
func NewDispatcher(repo repository.NotificationRepository, notifier *Notifier) *Dispatcher {
	return &Dispatcher{repo: repo, notifier: notifier}
}

// wireMessage is the JSON payload published to a user's channel.
type wireMessage struct {
	ID        uint   `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	SenderID  uint   `json:"sender_id"`
	TripID    uint   `json:"trip_id,omitempty"`
	CommentID *uint  `json:"comment_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Dispatch stores the notification and publishes it to the recipient's
// channel. Failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, notification *models.Notification) {
	if notification == nil || notification.RecipientID == 0 {
		return
	}

	if err := d.repo.Create(ctx, notification); err != nil {
		middleware.NotificationsDispatched.WithLabelValues(string(notification.Type), "store_error").Inc()
		slog.WarnContext(ctx, "failed to store notification",
			"type", notification.Type,
			"recipient_id", notification.RecipientID,
			"error", err)
		return
	}

	msg := wireMessage{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Title:     notification.Title,
		Body:      notification.Body,
		SenderID:  notification.SenderID,
		TripID:    notification.TripID,
		CommentID: notification.CommentID,
		CreatedAt: notification.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		middleware.NotificationsDispatched.WithLabelValues(string(notification.Type), "encode_error").Inc()
		slog.WarnContext(ctx, "failed to encode notification", "error", err)
		return
	}

	if err := d.notifier.PublishUser(ctx, notification.RecipientID, string(payload)); err != nil {
		middleware.NotificationsDispatched.WithLabelValues(string(notification.Type), "publish_error").Inc()
		slog.WarnContext(ctx, "failed to publish notification",
			"type", notification.Type,
			"recipient_id", notification.RecipientID,
			"error", err)
		return
	}

	middleware.NotificationsDispatched.WithLabelValues(string(notification.Type), "ok").Inc()
}
