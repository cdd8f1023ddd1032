// Package models contains data structures for the application's domain models.
package models

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a TourismCam traveller account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `gorm:"not null;default:user" json:"role"`
	PostCount int       `gorm:"not null;default:0" json:"post_count"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PlaceholderUser stands in for an author record that can no longer be found.
func PlaceholderUser(id uint) *User {
	return &User{ID: id, Username: "unknown", Name: "Unknown traveler", Role: RoleUser}
}
