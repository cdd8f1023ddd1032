package models

import "time"

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User *User `json:"user"`
}

// UserListResponse wraps user search results.
type UserListResponse struct {
	Users []*User `json:"users"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewPagination computes HasMore from the page size actually returned.
func NewPagination(limit, offset, returned int, total int64) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: int64(offset+returned) < total,
	}
}

// PostListResponse wraps a page of posts.
type PostListResponse struct {
	Posts      []*Post    `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// LikeResponse is the outcome of a like toggle.
type LikeResponse struct {
	PostID     uint `json:"post_id"`
	IsLiked    bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}

// SaveResponse is the outcome of a save toggle.
type SaveResponse struct {
	PostID  uint `json:"post_id"`
	IsSaved bool `json:"is_saved"`
}

// CommentListResponse wraps the comments of a post.
type CommentListResponse struct {
	Comments []*Comment `json:"comments"`
}

// CommentResponse carries a created or edited comment and the post's count.
type CommentResponse struct {
	Comment       *Comment `json:"comment"`
	CommentsCount int      `json:"comments_count"`
}

// CommentDeleteResponse carries the post's count after a deletion.
type CommentDeleteResponse struct {
	CommentID     uint `json:"comment_id"`
	CommentsCount int  `json:"comments_count"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse acknowledges a reset request. ResetToken is only
// filled outside production so the flow can be exercised without email.
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}
