package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DeletedCommentPlaceholder replaces the content of a soft-deleted comment at
// the DTO boundary and in storage.
const DeletedCommentPlaceholder = "This comment has been deleted."

// ErrCommentDeleted rejects mutations of a soft-deleted comment.
// Deletion is terminal: a deleted comment never becomes editable or likeable again.
var ErrCommentDeleted = NewUnauthorizedError("comment has been deleted")

// UserIDSet is a JSON-serialized set of user ids. Each id appears at most once;
// insertion order is preserved so serialization stays deterministic.
type UserIDSet []uint

// Value implements driver.Valuer.
func (s UserIDSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *UserIDSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for UserIDSet", src)
	}
}

// Contains reports set membership.
func (s UserIDSet) Contains(userID uint) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is the atomic unit of discussion on a trip. A top-level comment
// (nil ParentID) owns an ordered list of child comments; children are one
// level deep and are persisted only through their parent aggregate.
type Comment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TripID uint `gorm:"not null;index" json:"trip_id"`
	UserID uint `gorm:"not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user"`
	// ParentID is nil for top-level comments and equals the owning
	// comment's id for replies.
	ParentID *uint `gorm:"index" json:"parent_id,omitempty"`
	// Content is optional at creation; nil/blank is valid for a live comment.
	// Deletion overwrites it with the placeholder, so "no content" and
	// "deleted" stay independent flags that co-occur after deletion.
	Content       *string   `gorm:"type:text" json:"content"`
	LikeCount     int       `gorm:"not null;default:0" json:"like_count"`
	LikedBy       UserIDSet `gorm:"type:text" json:"-"`
	ReplyToUserID *uint     `json:"reply_to_user_id,omitempty"`
	IsDeleted     bool      `gorm:"not null;default:false" json:"is_deleted"`
	// Version is the optimistic-lock revision compared on aggregate save.
	Version   int       `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Children  []Comment `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// ToggleLike adds the user to the liked set, or removes them when already
// present. The liked set and the counter move together, so
// len(LikedBy) == LikeCount holds across any toggle sequence.
func (c *Comment) ToggleLike(userID uint) (added bool, err error) {
	if c.IsDeleted {
		return false, ErrCommentDeleted
	}
	for i, id := range c.LikedBy {
		if id == userID {
			c.LikedBy = append(c.LikedBy[:i], c.LikedBy[i+1:]...)
			c.LikeCount--
			return false, nil
		}
	}
	c.LikedBy = append(c.LikedBy, userID)
	c.LikeCount++
	return true, nil
}

// SoftDelete redacts the comment in place: placeholder content, cleared liked
// set and counter, cleared reply target. Callers enforce the double-delete
// policy; re-applying is harmless.
func (c *Comment) SoftDelete() {
	placeholder := DeletedCommentPlaceholder
	c.Content = &placeholder
	c.LikedBy = nil
	c.LikeCount = 0
	c.ReplyToUserID = nil
	c.IsDeleted = true
}

// Child returns the embedded child with the given id, or nil.
func (c *Comment) Child(id uint) *Comment {
	for i := range c.Children {
		if c.Children[i].ID == id {
			return &c.Children[i]
		}
	}
	return nil
}
