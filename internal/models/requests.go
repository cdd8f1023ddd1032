package models

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,loose_email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30,handle"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=80"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,max=2048"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,loose_email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Caption       string         `json:"caption" validate:"max=2200"`
	ImageURL      string         `json:"image_url" validate:"required,max=2048,image_ref"`
	Location      string         `json:"location,omitempty" validate:"max=200"`
	Tags          []string       `json:"tags,omitempty" validate:"max=10,dive,min=1,max=30"`
	IsPublic      *bool          `json:"is_public,omitempty"`
	Status        string         `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	ImageMetadata *ImageMetadata `json:"image_metadata,omitempty"`
}

// UpdatePostRequest changes only the fields that are present.
type UpdatePostRequest struct {
	Caption  *string  `json:"caption,omitempty" validate:"omitempty,max=2200"`
	Location *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
	IsPublic *bool    `json:"is_public,omitempty"`
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

// CommentRequest is the body of POST /posts/:id/comments.
type CommentRequest struct {
	Content         string `json:"content" validate:"required,min=1,max=1000"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
}

// UpdateCommentRequest is the body of PUT /posts/:id/comments/:commentId.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
