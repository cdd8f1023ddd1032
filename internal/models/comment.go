package models

import "time"

// Comment represents a comment on a post. Replies point at their parent.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index" json:"post_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Username        string    `gorm:"-" json:"username"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	IsEdited        bool      `gorm:"not null;default:false" json:"is_edited"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id,omitempty"`
	RepliesCount    int       `gorm:"not null;default:0" json:"replies_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AttachUser sets the commenter and the denormalized username together.
func (c *Comment) AttachUser(u *User) {
	c.User = u
	if u != nil {
		c.Username = u.Username
	}
}
