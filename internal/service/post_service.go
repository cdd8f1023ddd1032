package service

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"tourismcam/internal/featureflags"
	"tourismcam/internal/models"
	"tourismcam/internal/observability"
	"tourismcam/internal/repository"
)

type PostService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	flags   *featureflags.Manager
	isAdmin AdminCheck
}

type ListPostsInput struct {
	Limit    int
	Offset   int
	ViewerID uint
	Tag      string
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	flags *featureflags.Manager,
	isAdmin AdminCheck,
) *PostService {
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &PostService{
		posts:   posts,
		users:   users,
		flags:   flags,
		isAdmin: isAdmin,
	}
}

func (s *PostService) list(ctx context.Context, q repository.PostQuery) (*models.PostListResponse, error) {
	q.Limit, q.Offset = normalizePage(q.Limit, q.Offset)
	posts, total, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &models.PostListResponse{
		Posts:      posts,
		Pagination: models.NewPagination(q.Limit, q.Offset, len(posts), total),
	}, nil
}

// ListPosts returns the feed, optionally narrowed to one tag.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostListResponse, error) {
	return s.list(ctx, repository.PostQuery{
		Limit:    in.Limit,
		Offset:   in.Offset,
		ViewerID: in.ViewerID,
		Tag:      normalizeTag(in.Tag),
	})
}

func (s *PostService) PostsByTag(ctx context.Context, tag string, limit, offset int, viewerID uint) (*models.PostListResponse, error) {
	tag = normalizeTag(tag)
	if tag == "" {
		return nil, models.NewValidationError("Tag is required")
	}
	return s.ListPosts(ctx, ListPostsInput{Limit: limit, Offset: offset, ViewerID: viewerID, Tag: tag})
}

// SearchPosts matches caption or location, case-insensitively.
func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uint) (*models.PostListResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.list(ctx, repository.PostQuery{
		Limit:    limit,
		Offset:   offset,
		ViewerID: viewerID,
		Search:   query,
	})
}

func (s *PostService) UserPosts(ctx context.Context, userID uint, limit, offset int, viewerID uint) (*models.PostListResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", userID)
	}
	return s.list(ctx, repository.PostQuery{
		Limit:    limit,
		Offset:   offset,
		ViewerID: viewerID,
		AuthorID: userID,
	})
}

func (s *PostService) SavedPosts(ctx context.Context, userID uint, limit, offset int) (*models.PostListResponse, error) {
	if !s.flags.Enabled(featureflags.SavedPosts, userID) {
		return nil, models.NewForbiddenError("Saved posts are not available")
	}
	return s.list(ctx, repository.PostQuery{
		Limit:    limit,
		Offset:   offset,
		ViewerID: userID,
		SavedBy:  userID,
	})
}

// GetPost returns the post as seen by viewerID and counts the view unless the
// viewer is the author.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.visiblePost(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	if post.UserID != viewerID && s.flags.Enabled(featureflags.ViewCounting, viewerID) {
		if err := s.posts.IncrementViews(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to count post view", "post_id", id, "error", err)
		} else {
			post.ViewsCount++
		}
	}
	return post, nil
}

func (s *PostService) visiblePost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, userID uint, req models.CreatePostRequest) (created *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if err := validate(req); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   userID,
		Caption:  strings.TrimSpace(req.Caption),
		ImageURL: strings.TrimSpace(req.ImageURL),
		Location: strings.TrimSpace(req.Location),
		Tags:     NormalizeTags(req.Tags),
		IsPublic: true,
		Status:   models.StatusPublished,
	}
	if req.IsPublic != nil {
		post.IsPublic = *req.IsPublic
	}
	if req.Status != "" {
		post.Status = req.Status
	}
	if req.ImageMetadata != nil {
		post.ImageMetadata = *req.ImageMetadata
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, storeError(err, "Post", 0)
	}
	observability.PostsCreated.WithLabelValues(post.Status).Inc()

	return s.visiblePost(ctx, post.ID, userID)
}

// UpdatePost applies the present fields. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint, req models.UpdatePostRequest) (*models.Post, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	post, err := s.visiblePost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if req.Caption != nil {
		post.Caption = strings.TrimSpace(*req.Caption)
	}
	if req.Location != nil {
		post.Location = strings.TrimSpace(*req.Location)
	}
	if req.Tags != nil {
		post.Tags = NormalizeTags(req.Tags)
	}
	if req.IsPublic != nil {
		post.IsPublic = *req.IsPublic
	}
	if req.Status != nil {
		post.Status = *req.Status
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, storeError(err, "Post", postID)
	}
	return s.visiblePost(ctx, postID, userID)
}

// DeletePost soft-deletes a post. The author or an admin may delete.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.visiblePost(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		admin := false
		if s.isAdmin != nil {
			if admin, err = s.isAdmin(ctx, userID); err != nil {
				return models.NewInternalError(err)
			}
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return storeError(err, "Post", postID)
	}
	return nil
}

// ToggleLike flips the viewer's like and reports the stored count.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (resp *models.LikeResponse, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ToggleLike", attribute.Int64("post.id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.visiblePost(ctx, postID, userID); err != nil {
		return nil, err
	}
	liked, count, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}

	state := "unliked"
	if liked {
		state = "liked"
	}
	observability.LikesToggled.WithLabelValues(state).Inc()
	return &models.LikeResponse{PostID: postID, IsLiked: liked, LikesCount: count}, nil
}

func (s *PostService) ToggleSave(ctx context.Context, userID, postID uint) (*models.SaveResponse, error) {
	if !s.flags.Enabled(featureflags.SavedPosts, userID) {
		return nil, models.NewForbiddenError("Saved posts are not available")
	}
	if _, err := s.visiblePost(ctx, postID, userID); err != nil {
		return nil, err
	}
	saved, err := s.posts.ToggleSave(ctx, postID, userID)
	if err != nil {
		return nil, storeError(err, "Post", postID)
	}
	return &models.SaveResponse{PostID: postID, IsSaved: saved}, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// NormalizeTags trims, lower-cases and de-duplicates tags, keeping the first
// occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
