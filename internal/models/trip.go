package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StringList is a JSON-serialized list column (hashtags, image URLs).
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}
}

// Trip represents a travel write-up in the Triplog application.
type Trip struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
	Title     string     `gorm:"not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Country   string     `gorm:"index" json:"country"`
	Address   string     `json:"address"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Hashtags  StringList `gorm:"type:text" json:"hashtags"`
	ImageURLs StringList `gorm:"type:text" json:"image_urls"`
	IsPublic  bool       `gorm:"default:true" json:"is_public"`
	// IsHidden marks a trip removed from all listings by an administrator.
	IsHidden bool `gorm:"default:false" json:"is_hidden"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// VisibleTo reports whether the trip may be read by the given viewer role.
// Hidden trips are invisible to everyone through the public surface, including
// admins listing regular content; guests additionally require the trip to be public.
func (t *Trip) VisibleTo(viewer Viewer) bool {
	if t.IsHidden {
		return false
	}
	if viewer.Role == RoleGuest {
		return t.IsPublic
	}
	return true
}

// CountryCount is a ranking row for the country-frequency listing.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}
