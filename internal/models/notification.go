package models

import (
	"time"
)

// NotificationType distinguishes what triggered a notification.
type NotificationType string

const (
	NotificationComment     NotificationType = "comment"
	NotificationReply       NotificationType = "reply"
	NotificationCommentLike NotificationType = "comment_like"
	NotificationFollow      NotificationType = "follow"
)

// Notification is a stored copy of a push event delivered to one recipient.
// Delivery is best-effort; failures never roll back the mutation that
// produced the event.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient_id"`
	SenderID    uint             `gorm:"not null" json:"sender_id"`
	Sender      User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title       string           `gorm:"not null" json:"title"`
	Body        string           `json:"body"`
	TripID      uint             `json:"trip_id"`
	CommentID   *uint            `json:"comment_id,omitempty"`
	ParentID    *uint            `json:"parent_id,omitempty"`
	IsRead      bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}
