package models

import (
	"time"

	"gorm.io/gorm"
)

// Post lifecycle states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// MaxRecentComments bounds the comment preview embedded in post reads.
const MaxRecentComments = 3

// ImageMetadata describes the uploaded panorama. It is supplied by the client.
type ImageMetadata struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Format     string `json:"format,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
	Projection string `json:"projection,omitempty"`
}

// Post represents a shared 360° photo.
type Post struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Caption       string         `gorm:"type:text" json:"caption"`
	ImageURL      string         `gorm:"not null" json:"image_url"`
	Location      string         `json:"location,omitempty"`
	Tags          []string       `gorm:"type:text;serializer:json" json:"tags"`
	IsPublic      bool           `gorm:"not null" json:"is_public"`
	Status        string         `gorm:"not null;default:published;index" json:"status"`
	LikesCount    int            `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int            `gorm:"not null;default:0" json:"comments_count"`
	ViewsCount    int            `gorm:"not null;default:0" json:"views_count"`
	ImageMetadata ImageMetadata  `gorm:"type:text;serializer:json" json:"image_metadata"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Computed per viewer at read time.
	IsLiked        bool       `gorm:"-" json:"is_liked"`
	IsSaved        bool       `gorm:"-" json:"is_saved"`
	RecentComments []*Comment `gorm:"-" json:"recent_comments"`
}

// VisibleTo reports whether viewerID may see the post. Zero means anonymous.
func (p *Post) VisibleTo(viewerID uint) bool {
	if p.DeletedAt.Valid {
		return false
	}
	if viewerID != 0 && p.UserID == viewerID {
		return true
	}
	return p.Status == StatusPublished && p.IsPublic
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is a bookmark a user keeps on a post.
type SavedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saved_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
