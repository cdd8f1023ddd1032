package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismcam/internal/featureflags"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Cameroon ", "#beach", "cameroon", "", "BEACH", "kribi"})
	assert.Equal(t, []string{"cameroon", "beach", "kribi"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestPostService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "saved_posts=on,view_counting=on")
	author := f.register(t, "author@example.com", "Author").User
	viewer := f.register(t, "viewer@example.com", "Viewer").User

	created := f.post(t, author.ID, "Sunrise at Limbe", "Limbe, Cameroon", "Beach", "sunrise", "beach")
	assert.Equal(t, "Sunrise at Limbe", created.Caption)
	assert.Equal(t, "Limbe, Cameroon", created.Location)
	assert.Equal(t, []string{"beach", "sunrise"}, created.Tags)
	assert.True(t, created.IsPublic)
	assert.Equal(t, models.StatusPublished, created.Status)
	assert.Zero(t, created.LikesCount)
	assert.Zero(t, created.CommentsCount)
	assert.Zero(t, created.ViewsCount)

	own, err := f.posts.GetPost(ctx, created.ID, author.ID)
	require.NoError(t, err)
	assert.Zero(t, own.ViewsCount, "authors do not count their own views")

	seen, err := f.posts.GetPost(ctx, created.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, seen.ViewsCount)

	_, err = f.posts.GetPost(ctx, 9999, viewer.ID)
	assertCode(t, err, models.CodeNotFound)

	me, err := f.users.GetProfile(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, me.PostCount)
}

func TestPostService_CreateValidation(t *testing.T) {
	f := newFixture(t, "")
	u := f.register(t, "author@example.com", "Author").User

	cases := []struct {
		name string
		req  models.CreatePostRequest
	}{
		{"missing image", models.CreatePostRequest{Caption: "x"}},
		{"image not a url", models.CreatePostRequest{ImageURL: "pano.jpg"}},
		{"bad status", models.CreatePostRequest{ImageURL: "/p.jpg", Status: "hidden"}},
		{"long caption", models.CreatePostRequest{ImageURL: "/p.jpg", Caption: strings.Repeat("x", 2201)}},
		{"too many tags", models.CreatePostRequest{ImageURL: "/p.jpg", Tags: strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.posts.CreatePost(context.Background(), u.ID, tc.req)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_ViewCountingFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "view_counting=off")
	author := f.register(t, "author@example.com", "Author").User
	p := f.post(t, author.ID, "Waterfall", "Ekom")

	got, err := f.posts.GetPost(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, got.ViewsCount)
}

func TestPostService_SearchAndTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	u := f.register(t, "author@example.com", "Author").User
	f.post(t, u.ID, "Mount CAMEROON at dawn", "Buea", "mountain")
	f.post(t, u.ID, "Waterfall", "Ekom, Cameroon", "waterfall")
	f.post(t, u.ID, "Dunes", "Sahara", "desert")

	found, err := f.posts.SearchPosts(ctx, "cameroon", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, found.Posts, 2)
	for _, p := range found.Posts {
		hay := strings.ToLower(p.Caption + " " + p.Location)
		assert.Contains(t, hay, "cameroon")
	}
	assert.Equal(t, int64(2), found.Pagination.Total)
	assert.False(t, found.Pagination.HasMore)

	_, err = f.posts.SearchPosts(ctx, "   ", 10, 0, 0)
	assertValidationError(t, err)

	tagged, err := f.posts.PostsByTag(ctx, "#Desert", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, tagged.Posts, 1)
	assert.Equal(t, "Dunes", tagged.Posts[0].Caption)

	page, err := f.posts.ListPosts(ctx, ListPostsInput{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, "Dunes", page.Posts[0].Caption, "newest first")
}

func TestPostService_UpdateDeleteAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	author := f.register(t, "author@example.com", "Author").User
	other := f.register(t, "other@example.com", "Other").User
	p := f.post(t, author.ID, "Before", "Kribi")

	caption := "After"
	_, err := f.posts.UpdatePost(ctx, other.ID, p.ID, models.UpdatePostRequest{Caption: &caption})
	assertCode(t, err, models.CodeForbidden)

	updated, err := f.posts.UpdatePost(ctx, author.ID, p.ID, models.UpdatePostRequest{Caption: &caption, Tags: []string{"Coast"}})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Caption)
	assert.Equal(t, []string{"coast"}, updated.Tags)
	assert.Equal(t, "Kribi", updated.Location)

	assertCode(t, f.posts.DeletePost(ctx, other.ID, p.ID), models.CodeForbidden)

	admin := f.register(t, "admin@example.com", "Admin").User
	admin.Role = models.RoleAdmin
	require.NoError(t, f.store.Users.Update(ctx, admin))
	require.NoError(t, f.posts.DeletePost(ctx, admin.ID, p.ID))

	_, err = f.posts.GetPost(ctx, p.ID, author.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_DraftsAreHidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	author := f.register(t, "author@example.com", "Author").User
	draft, err := f.posts.CreatePost(ctx, author.ID, models.CreatePostRequest{ImageURL: "/d.jpg", Status: models.StatusDraft})
	require.NoError(t, err)

	_, err = f.posts.GetPost(ctx, draft.ID, 0)
	assertCode(t, err, models.CodeNotFound)

	mine, err := f.posts.UserPosts(ctx, author.ID, 10, 0, author.ID)
	require.NoError(t, err)
	assert.Len(t, mine.Posts, 1)

	public, err := f.posts.UserPosts(ctx, author.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, public.Posts)

	_, err = f.posts.UserPosts(ctx, 999, 10, 0, 0)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_ToggleLikeTwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	author := f.register(t, "author@example.com", "Author").User
	fan := f.register(t, "fan@example.com", "Fan").User
	p := f.post(t, author.ID, "Lake Barombi", "Kumba")

	first, err := f.posts.ToggleLike(ctx, fan.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, first.IsLiked)
	assert.Equal(t, 1, first.LikesCount)

	second, err := f.posts.ToggleLike(ctx, fan.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, second.IsLiked)
	assert.Equal(t, p.LikesCount, second.LikesCount)

	_, err = f.posts.ToggleLike(ctx, fan.ID, 9999)
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_SavedPostsFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled", func(t *testing.T) {
		f := newFixture(t, "saved_posts=on")
		u := f.register(t, "author@example.com", "Author").User
		p := f.post(t, u.ID, "Saved", "Douala")

		resp, err := f.posts.ToggleSave(ctx, u.ID, p.ID)
		require.NoError(t, err)
		assert.True(t, resp.IsSaved)

		saved, err := f.posts.SavedPosts(ctx, u.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, saved.Posts, 1)
		assert.True(t, saved.Posts[0].IsSaved)
	})

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, "saved_posts=off")
		_, err := f.posts.SavedPosts(ctx, 1, 10, 0)
		assertCode(t, err, models.CodeForbidden)
		_, err = f.posts.ToggleSave(ctx, 1, 1)
		assertCode(t, err, models.CodeForbidden)
	})
}

func TestPostService_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repoErr := errors.New("db down")

	t.Run("list failure is internal", func(t *testing.T) {
		repo := noopPostRepo()
		repo.listFn = func(_ context.Context, _ repository.PostQuery) ([]*models.Post, int64, error) {
			return nil, 0, repoErr
		}
		svc := NewPostService(repo, nil, featureflags.NewManager(""), nil)
		_, err := svc.ListPosts(ctx, ListPostsInput{})
		assertCode(t, err, models.CodeInternal)
		assert.ErrorIs(t, err, repoErr)
	})

	t.Run("view counting failure does not fail the read", func(t *testing.T) {
		repo := noopPostRepo()
		repo.incrementViewsFn = func(_ context.Context, _ uint) error { return repoErr }
		svc := NewPostService(repo, nil, featureflags.NewManager("view_counting=on"), nil)
		post, err := svc.GetPost(ctx, 5, 2)
		require.NoError(t, err)
		assert.Zero(t, post.ViewsCount)
	})

	t.Run("pagination is clamped", func(t *testing.T) {
		var got repository.PostQuery
		repo := noopPostRepo()
		repo.listFn = func(_ context.Context, q repository.PostQuery) ([]*models.Post, int64, error) {
			got = q
			return nil, 0, nil
		}
		svc := NewPostService(repo, nil, nil, nil)
		resp, err := svc.ListPosts(ctx, ListPostsInput{Limit: 500, Offset: -3})
		require.NoError(t, err)
		assert.Equal(t, maxPageSize, got.Limit)
		assert.Equal(t, 0, got.Offset)
		assert.NotNil(t, resp.Posts)
	})

	t.Run("vanished post on like maps to not found", func(t *testing.T) {
		repo := noopPostRepo()
		repo.toggleLikeFn = func(_ context.Context, _, _ uint) (bool, int, error) {
			return false, 0, repository.ErrNotFound
		}
		svc := NewPostService(repo, nil, nil, nil)
		_, err := svc.ToggleLike(ctx, 2, 5)
		assertCode(t, err, models.CodeNotFound)
	})
}
