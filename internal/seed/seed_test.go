package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tourismcam/internal/auth"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

func TestLoad_EmbeddedFixtures(t *testing.T) {
	fx, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, fx.Users)
	assert.NotEmpty(t, fx.Posts)
	assert.Equal(t, "demo@example.com", fx.Users[0].Email)
	assert.Equal(t, "equirectangular", fx.Posts[0].ImageMetadata.Projection)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("users: [this is: not valid"))
	assert.Error(t, err)
}

func TestDemo_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()

	created, err := Demo(ctx, store)
	require.NoError(t, err)
	assert.True(t, created)

	count, err := store.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	created, err = Demo(ctx, store)
	require.NoError(t, err)
	assert.False(t, created)

	count, err = store.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestDemo_UserCanLogIn(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()
	_, err := Demo(ctx, store)
	require.NoError(t, err)

	u, err := store.Users.GetByEmail(ctx, "demo@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, auth.CheckPassword(u.Password, "password123"))

	admin, err := store.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestApply_EngagementAndVisibility(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()
	fx, err := Load()
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := Apply(ctx, store, fx, now)
	require.NoError(t, err)
	require.Len(t, res.Posts, len(fx.Posts))
	assert.Equal(t, len(fx.Comments), res.Comments)

	posts, total, err := store.Posts.List(ctx, repository.PostQuery{Limit: 50})
	require.NoError(t, err)
	// The draft stays hidden from anonymous readers.
	assert.EqualValues(t, len(fx.Posts)-1, total)
	assert.Len(t, posts, len(fx.Posts)-1)

	first, err := store.Posts.GetByID(ctx, res.Posts[0].ID, res.Users["demo"].ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, first.LikesCount)
	assert.Equal(t, 2, first.CommentsCount)
	assert.True(t, first.IsLiked)
	assert.Equal(t, now.Add(-12*24*time.Hour), first.CreatedAt)

	saved, _, err := store.Posts.List(ctx, repository.PostQuery{Limit: 10, SavedBy: res.Users["demo"].ID, ViewerID: res.Users["demo"].ID})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, res.Posts[1].ID, saved[0].ID)
}

func TestApply_UnknownReferences(t *testing.T) {
	ctx := context.Background()

	fx := &Fixtures{
		Users: []UserFixture{{Email: "a@example.com", Username: "a", Name: "A", Password: "password123"}},
		Posts: []PostFixture{{Author: "ghost", Caption: "x", ImageURL: "/x.jpg"}},
	}
	_, err := Apply(ctx, repository.NewMemoryStore().Store(), fx, time.Now())
	assert.ErrorContains(t, err, "unknown author")

	fx.Posts[0].Author = "a"
	fx.Comments = []CommentFixture{{Post: 5, Author: "a", Content: "hi"}}
	_, err = Apply(ctx, repository.NewMemoryStore().Store(), fx, time.Now())
	assert.ErrorContains(t, err, "unknown post index")
}

func TestFactory_BuildPost(t *testing.T) {
	author := &models.User{ID: 7}
	f := NewFactory(42)

	p := f.BuildPost(author)
	assert.Equal(t, uint(7), p.UserID)
	assert.NotEmpty(t, p.Caption)
	assert.NotEmpty(t, p.ImageURL)
	assert.NotEmpty(t, p.Location)
	assert.NotEmpty(t, p.Tags)
	assert.LessOrEqual(t, len(p.Tags), 3)
	assert.Equal(t, models.StatusPublished, p.Status)
	assert.False(t, p.CreatedAt.After(f.now))

	seen := map[string]bool{}
	for _, tag := range p.Tags {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}

	draft := f.BuildPost(author, func(p *models.Post) { p.Status = models.StatusDraft })
	assert.Equal(t, models.StatusDraft, draft.Status)
}

func TestFactory_Deterministic(t *testing.T) {
	author := &models.User{ID: 1}
	a := NewFactory(99)
	b := NewFactory(99)
	b.now = a.now

	pa, pb := a.BuildPost(author), b.BuildPost(author)
	assert.Equal(t, pa.Caption, pb.Caption)
	assert.Equal(t, pa.Location, pb.Location)
	assert.Equal(t, pa.Tags, pb.Tags)
}

func TestFactory_CreatePosts(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()
	u1 := &models.User{Email: "one@example.com", Username: "one", Name: "One", Password: "x"}
	u2 := &models.User{Email: "two@example.com", Username: "two", Name: "Two", Password: "x"}
	require.NoError(t, store.Users.Create(ctx, u1))
	require.NoError(t, store.Users.Create(ctx, u2))

	posts, err := NewFactory(1).CreatePosts(ctx, store, []*models.User{u1, u2}, 6)
	require.NoError(t, err)
	require.Len(t, posts, 6)
	assert.Equal(t, u1.ID, posts[0].UserID)
	assert.Equal(t, u2.ID, posts[1].UserID)
	for _, p := range posts {
		assert.NotZero(t, p.ID)
	}

	none, err := NewFactory(1).CreatePosts(ctx, store, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFakePosts(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore().Store()

	_, err := FakePosts(ctx, store, 3, 1)
	assert.ErrorContains(t, err, "no demo users")

	_, err = Demo(ctx, store)
	require.NoError(t, err)

	n, err := FakePosts(ctx, store, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	admin, err := store.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	_, total, err := store.Posts.List(ctx, repository.PostQuery{Limit: 1, AuthorID: admin.ID, ViewerID: admin.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}
