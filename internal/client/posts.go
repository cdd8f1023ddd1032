package client

import (
	"context"
	"fmt"
	"net/http"

	"tourismcam/internal/models"
)

// ListOptions pages a list. Tag filters the feed when set.
type ListOptions struct {
	Limit  int
	Offset int
	Tag    string
}

// PostService covers /posts and /users/:id/posts.
type PostService struct{ c *Client }

func (s *PostService) List(ctx context.Context, opts ListOptions) (*models.PostListResponse, error) {
	q := pageQuery(opts.Limit, opts.Offset)
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	var resp models.PostListResponse
	if err := s.c.do(ctx, http.MethodGet, postsBase, "/posts", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.c.do(ctx, http.MethodGet, postsBase, fmt.Sprintf("/posts/%d", id), nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Create(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := s.c.do(ctx, http.MethodPost, postsBase, "/posts", nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Update(ctx context.Context, id uint, req models.UpdatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := s.c.do(ctx, http.MethodPut, postsBase, fmt.Sprintf("/posts/%d", id), nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.c.do(ctx, http.MethodDelete, postsBase, fmt.Sprintf("/posts/%d", id), nil, nil, nil)
}

func (s *PostService) ByUser(ctx context.Context, userID uint, opts ListOptions) (*models.PostListResponse, error) {
	var resp models.PostListResponse
	path := fmt.Sprintf("/users/%d/posts", userID)
	if err := s.c.do(ctx, http.MethodGet, postsBase, path, pageQuery(opts.Limit, opts.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) Saved(ctx context.Context, opts ListOptions) (*models.PostListResponse, error) {
	var resp models.PostListResponse
	if err := s.c.do(ctx, http.MethodGet, postsBase, "/posts/saved", pageQuery(opts.Limit, opts.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *PostService) ToggleSave(ctx context.Context, id uint) (*models.SaveResponse, error) {
	var resp models.SaveResponse
	if err := s.c.do(ctx, http.MethodPost, postsBase, fmt.Sprintf("/posts/%d/save", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LikeService toggles likes. The response carries the authoritative count.
type LikeService struct{ c *Client }

func (s *LikeService) Toggle(ctx context.Context, postID uint) (*models.LikeResponse, error) {
	var resp models.LikeResponse
	if err := s.c.do(ctx, http.MethodPost, postsBase, fmt.Sprintf("/posts/%d/like", postID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CommentService covers /posts/:id/comments.
type CommentService struct{ c *Client }

func (s *CommentService) List(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var resp models.CommentListResponse
	path := fmt.Sprintf("/posts/%d/comments", postID)
	if err := s.c.do(ctx, http.MethodGet, postsBase, path, pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

func (s *CommentService) Add(ctx context.Context, postID uint, content string, parentID *uint) (*models.CommentResponse, error) {
	var resp models.CommentResponse
	req := models.CommentRequest{Content: content, ParentCommentID: parentID}
	if err := s.c.do(ctx, http.MethodPost, postsBase, fmt.Sprintf("/posts/%d/comments", postID), nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *CommentService) Edit(ctx context.Context, postID, commentID uint, content string) (*models.CommentResponse, error) {
	var resp models.CommentResponse
	path := fmt.Sprintf("/posts/%d/comments/%d", postID, commentID)
	if err := s.c.do(ctx, http.MethodPut, postsBase, path, nil, models.UpdateCommentRequest{Content: content}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *CommentService) Delete(ctx context.Context, postID, commentID uint) (*models.CommentDeleteResponse, error) {
	var resp models.CommentDeleteResponse
	path := fmt.Sprintf("/posts/%d/comments/%d", postID, commentID)
	if err := s.c.do(ctx, http.MethodDelete, postsBase, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchService covers post and user search.
type SearchService struct{ c *Client }

func (s *SearchService) Posts(ctx context.Context, query string, limit, offset int) (*models.PostListResponse, error) {
	q := pageQuery(limit, offset)
	q.Set("q", query)
	var resp models.PostListResponse
	if err := s.c.do(ctx, http.MethodGet, postsBase, "/posts/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *SearchService) Users(ctx context.Context, query string, limit int) ([]*models.User, error) {
	q := pageQuery(limit, 0)
	q.Set("q", query)
	var resp models.UserListResponse
	if err := s.c.do(ctx, http.MethodGet, apiBase, "/users/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
