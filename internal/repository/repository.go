// Package repository provides the data access layer: an in-memory store for
// demos and tests, and GORM-backed implementations for SQLite and Postgres.
//
// Lookups return (nil, nil) when the record does not exist or is not visible
// to the viewer. Mutations of missing records return ErrNotFound.
package repository

import (
	"context"
	"errors"

	"tourismcam/internal/models"
)

var (
	// ErrNotFound is returned when a mutation targets a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalidParent is returned when a reply points at a comment on another post.
	ErrInvalidParent = errors.New("parent comment does not belong to this post")
)

// PostQuery selects a page of posts as seen by ViewerID (zero is anonymous).
type PostQuery struct {
	Limit    int
	Offset   int
	ViewerID uint
	AuthorID uint
	Tag      string
	Search   string
	SavedBy  uint
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error)
	List(ctx context.Context, q PostQuery) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (liked bool, likesCount int, err error)
	ToggleSave(ctx context.Context, postID, userID uint) (saved bool, err error)
}

// CommentRepository defines persistence operations for comments. Create and
// Delete return the post's comments_count after the change.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (int, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) (int, error)
}

// Store groups the repositories a server runs on.
type Store struct {
	Users    UserRepository
	Posts    PostRepository
	Comments CommentRepository
}
