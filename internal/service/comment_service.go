package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"tourismcam/internal/models"
	"tourismcam/internal/observability"
	"tourismcam/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	isAdmin  AdminCheck
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	isAdmin AdminCheck,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		isAdmin:  isAdmin,
	}
}

func (s *CommentService) post(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// comment loads a comment and checks it belongs to postID.
func (s *CommentService) comment(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if c == nil || c.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return c, nil
}

// ListComments returns a post's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int, viewerID uint) (*models.CommentListResponse, error) {
	if _, err := s.post(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	limit, offset = normalizePage(limit, offset)
	comments, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &models.CommentListResponse{Comments: comments}, nil
}

func (s *CommentService) AddComment(ctx context.Context, userID, postID uint, req models.CommentRequest) (resp *models.CommentResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.AddComment", attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	req.Content = strings.TrimSpace(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}
	if _, err := s.post(ctx, postID, userID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:          postID,
		UserID:          userID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	}
	count, err := s.comments.Create(ctx, comment)
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}

	kind := "comment"
	if comment.ParentCommentID != nil {
		kind = "reply"
	}
	observability.CommentsCreated.WithLabelValues(kind).Inc()
	return &models.CommentResponse{Comment: comment, CommentsCount: count}, nil
}

// EditComment replaces the content. Only the commenter may edit.
func (s *CommentService) EditComment(ctx context.Context, userID, postID, commentID uint, req models.UpdateCommentRequest) (*models.CommentResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}

	comment, err := s.comment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	comment.Content = req.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, storeError(err, "Comment", commentID)
	}

	updated, err := s.comment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	post, err := s.post(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &models.CommentResponse{Comment: updated, CommentsCount: post.CommentsCount}, nil
}

// DeleteComment removes a comment and its replies. The commenter, the post's
// author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, userID, postID, commentID uint) (*models.CommentDeleteResponse, error) {
	comment, err := s.comment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != userID {
		allowed := false
		if post, err := s.post(ctx, postID, userID); err == nil && post.UserID == userID {
			allowed = true
		}
		if !allowed && s.isAdmin != nil {
			if allowed, err = s.isAdmin(ctx, userID); err != nil {
				return nil, models.NewInternalError(err)
			}
		}
		if !allowed {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
	}

	count, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return nil, storeError(err, "Comment", commentID)
	}
	return &models.CommentDeleteResponse{CommentID: commentID, CommentsCount: count}, nil
}
