package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tourismcam/internal/auth"
	"tourismcam/internal/featureflags"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint, uint) (*models.Post, error)
	listFn           func(context.Context, repository.PostQuery) ([]*models.Post, int64, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	incrementViewsFn func(context.Context, uint) error
	toggleLikeFn     func(context.Context, uint, uint) (bool, int, error)
	toggleSaveFn     func(context.Context, uint, uint) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, q repository.PostQuery) ([]*models.Post, int64, error) {
	return s.listFn(ctx, q)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, postID, userID uint) (bool, int, error) {
	return s.toggleLikeFn(ctx, postID, userID)
}
func (s *postRepoStub) ToggleSave(ctx context.Context, postID, userID uint) (bool, error) {
	return s.toggleSaveFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id, UserID: 1}, nil },
		listFn: func(_ context.Context, _ repository.PostQuery) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn:         func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn:     func(_ context.Context, _, _ uint) (bool, int, error) { return true, 1, nil },
		toggleSaveFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

type fixture struct {
	store    repository.Store
	sessions *auth.MemorySessionStore
	auth     *AuthService
	posts    *PostService
	comments *CommentService
	users    *UserService
}

func newFixture(t *testing.T, flags string) *fixture {
	t.Helper()
	store := repository.NewMemoryStore().Store()
	sessions := auth.NewMemorySessionStore()
	issuer := auth.NewTokenIssuer("service-test-secret-with-enough-length", time.Hour)
	admin := AdminFromUsers(store.Users)
	return &fixture{
		store:    store,
		sessions: sessions,
		auth: NewAuthService(store.Users, sessions, issuer, AuthConfig{
			SessionTTL:       time.Hour,
			ResetTokenTTL:    time.Hour,
			ExposeResetToken: true,
		}),
		posts:    NewPostService(store.Posts, store.Users, featureflags.NewManager(flags), admin),
		comments: NewCommentService(store.Comments, store.Posts, admin),
		users:    NewUserService(store.Users),
	}
}

func (f *fixture) register(t *testing.T, email, name string) *models.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Email:    email,
		Password: "password123",
		Name:     name,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) post(t *testing.T, userID uint, caption, location string, tags ...string) *models.Post {
	t.Helper()
	p, err := f.posts.CreatePost(context.Background(), userID, models.CreatePostRequest{
		Caption:  caption,
		ImageURL: "https://cdn.example.com/pano.jpg",
		Location: location,
		Tags:     tags,
	})
	require.NoError(t, err)
	return p
}
