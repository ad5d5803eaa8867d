// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultProfileImageURL is served for authors whose user record is missing
// or has no profile image set.
const DefaultProfileImageURL = "https://static.triplog.dev/profile/default.png"

// User represents a registered member of the Triplog application.
// Accounts created through the external OAuth provider have an
// ExternalMemberID and an empty password.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Nickname         string         `gorm:"unique;not null" json:"nickname"`
	Email            string         `gorm:"unique;not null" json:"email"`
	Password         string         `json:"-"`
	ExternalMemberID *string        `gorm:"uniqueIndex" json:"-"`
	ProfileImageURL  string         `json:"profile_image_url"`
	Bio              string         `json:"bio"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Trips            []Trip         `gorm:"foreignKey:UserID" json:"trips,omitempty"`
}

// ProfileURL returns the user's profile image, falling back to the default placeholder.
func (u *User) ProfileURL() string {
	if u == nil || u.ProfileImageURL == "" {
		return DefaultProfileImageURL
	}
	return u.ProfileImageURL
}
