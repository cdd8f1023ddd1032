package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tourismcam/internal/cache"
	"tourismcam/internal/database"
	"tourismcam/internal/models"
)

// Every implementation runs the same behavioural checks.
var implementations = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore().Store()
	},
	"gorm-sqlite": func(t *testing.T) Store {
		return NewGormStore(openSQLite(t), nil)
	},
	"gorm-sqlite-redis": func(t *testing.T) Store {
		c, _ := openCache(t)
		return NewGormStore(openSQLite(t), c)
	},
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         database.NewGormLogger(noopLogger()),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func openCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client), mr
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, build := range implementations {
		build := build
		t.Run(name, func(t *testing.T) {
			fn(t, build(t))
		})
	}
}

func mustUser(t *testing.T, s Store, email, username, name string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Username: username, Name: name, Password: "hash"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func mustPost(t *testing.T, s Store, p *models.Post) *models.Post {
	t.Helper()
	if p.Status == "" {
		p.Status = models.StatusPublished
	}
	if p.ImageURL == "" {
		p.ImageURL = "/images/pano.jpg"
	}
	require.NoError(t, s.Posts.Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func TestUsers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		demo := mustUser(t, s, "demo@example.com", "demo", "Demo Traveler")

		err := s.Users.Create(ctx, &models.User{Email: "DEMO@example.com", Username: "other", Name: "X", Password: "h"})
		assert.ErrorIs(t, err, ErrDuplicate)

		got, err := s.Users.GetByEmail(ctx, "Demo@Example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, demo.ID, got.ID)
		assert.Equal(t, models.RoleUser, got.Role)

		missing, err := s.Users.GetByID(ctx, 999)
		assert.NoError(t, err)
		assert.Nil(t, missing)

		byName, err := s.Users.GetByUsername(ctx, "DEMO")
		require.NoError(t, err)
		require.NotNil(t, byName)

		mustUser(t, s, "amina@example.com", "amina_k", "Amina Kamga")
		found, err := s.Users.Search(ctx, "kamga", 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "amina_k", found[0].Username)

		got.Bio = "Explorer"
		require.NoError(t, s.Users.Update(ctx, got))
		reread, _ := s.Users.GetByID(ctx, demo.ID)
		assert.Equal(t, "Explorer", reread.Bio)

		n, err := s.Users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestPosts_CreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		author := mustUser(t, s, "a@example.com", "author", "Author")

		post := mustPost(t, s, &models.Post{
			UserID:   author.ID,
			Caption:  "Sunrise over Mount Cameroon",
			Location: "Buea",
			Tags:     []string{"mountain", "cameroon"},
			IsPublic: true,
			ImageMetadata: models.ImageMetadata{
				Width: 4096, Height: 2048, Projection: "equirectangular",
			},
		})

		got, err := s.Posts.GetByID(ctx, post.ID, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sunrise over Mount Cameroon", got.Caption)
		assert.Equal(t, []string{"mountain", "cameroon"}, got.Tags)
		assert.Equal(t, 4096, got.ImageMetadata.Width)
		assert.Zero(t, got.LikesCount)
		assert.Zero(t, got.CommentsCount)
		assert.Zero(t, got.ViewsCount)
		require.NotNil(t, got.User)
		assert.Equal(t, "author", got.User.Username)
		assert.NotNil(t, got.RecentComments)

		reread, _ := s.Users.GetByID(ctx, author.ID)
		assert.Equal(t, 1, reread.PostCount)

		missing, err := s.Posts.GetByID(ctx, 12345, 0)
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestPosts_ListOrderingAndVisibility(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		alice := mustUser(t, s, "alice@example.com", "alice", "Alice")
		bob := mustUser(t, s, "bob@example.com", "bob", "Bob")

		base := time.Now().Add(-time.Hour)
		older := mustPost(t, s, &models.Post{UserID: alice.ID, Caption: "older", IsPublic: true, CreatedAt: base})
		newer := mustPost(t, s, &models.Post{UserID: bob.ID, Caption: "newer", IsPublic: true, CreatedAt: base.Add(time.Minute)})
		private := mustPost(t, s, &models.Post{UserID: alice.ID, Caption: "private", IsPublic: false, CreatedAt: base.Add(2 * time.Minute)})
		draft := mustPost(t, s, &models.Post{UserID: alice.ID, Caption: "draft", IsPublic: true, Status: models.StatusDraft, CreatedAt: base.Add(3 * time.Minute)})
		gone := mustPost(t, s, &models.Post{UserID: bob.ID, Caption: "gone", IsPublic: true, CreatedAt: base.Add(4 * time.Minute)})
		require.NoError(t, s.Posts.Delete(ctx, gone.ID))

		anon, total, err := s.Posts.List(ctx, PostQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []uint{newer.ID, older.ID}, ids(anon))

		mine, total, err := s.Posts.List(ctx, PostQuery{Limit: 10, ViewerID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []uint{draft.ID, private.ID, newer.ID, older.ID}, ids(mine))

		hidden, err := s.Posts.GetByID(ctx, private.ID, bob.ID)
		assert.NoError(t, err)
		assert.Nil(t, hidden)

		deleted, err := s.Posts.GetByID(ctx, gone.ID, bob.ID)
		assert.NoError(t, err)
		assert.Nil(t, deleted)

		page, total, err := s.Posts.List(ctx, PostQuery{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []uint{older.ID}, ids(page))

		byAuthor, _, err := s.Posts.List(ctx, PostQuery{Limit: 10, AuthorID: bob.ID, ViewerID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint{newer.ID}, ids(byAuthor))

		b, _ := s.Users.GetByID(ctx, bob.ID)
		assert.Equal(t, 1, b.PostCount)
	})
}

func TestPosts_PrivatePostStaysPrivate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		owner := mustUser(t, s, "o@example.com", "owner", "Owner")
		other := mustUser(t, s, "x@example.com", "other", "Other")
		p := mustPost(t, s, &models.Post{UserID: owner.ID, Caption: "secret", IsPublic: false})
		assert.False(t, p.IsPublic)

		anon, err := s.Posts.GetByID(ctx, p.ID, 0)
		assert.NoError(t, err)
		assert.Nil(t, anon)

		stranger, err := s.Posts.GetByID(ctx, p.ID, other.ID)
		assert.NoError(t, err)
		assert.Nil(t, stranger)

		mine, err := s.Posts.GetByID(ctx, p.ID, owner.ID)
		require.NoError(t, err)
		require.NotNil(t, mine)
		assert.False(t, mine.IsPublic)
	})
}

func TestPosts_SearchAndTag(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "s@example.com", "seeker", "Seeker")
		byCaption := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "Beaches of CAMEROON", IsPublic: true, Tags: []string{"beach"}})
		byLocation := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "Waterfall", Location: "Ekom, Cameroon", IsPublic: true, Tags: []string{"waterfall"}})
		mustPost(t, s, &models.Post{UserID: u.ID, Caption: "Lagos nights", Location: "Nigeria", IsPublic: true, Tags: []string{"beach"}})

		found, total, err := s.Posts.List(ctx, PostQuery{Limit: 10, Search: "cameroon"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.ElementsMatch(t, []uint{byCaption.ID, byLocation.ID}, ids(found))

		tagged, _, err := s.Posts.List(ctx, PostQuery{Limit: 10, Tag: "Waterfall"})
		require.NoError(t, err)
		assert.Equal(t, []uint{byLocation.ID}, ids(tagged))
	})
}

func TestPosts_SearchWildcardsAreLiteral(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "w@example.com", "wild", "Wild")
		percent := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "100% sunshine in Limbe", IsPublic: true, Tags: []string{"a_b"}})
		mustPost(t, s, &models.Post{UserID: u.ID, Caption: "1000 steps to the top", IsPublic: true, Tags: []string{"axb"}})
		underscore := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "trail_head at Ebolowa", IsPublic: true})
		mustPost(t, s, &models.Post{UserID: u.ID, Caption: "trailshead at Kribi", IsPublic: true})

		found, _, err := s.Posts.List(ctx, PostQuery{Limit: 10, Search: "100%"})
		require.NoError(t, err)
		assert.Equal(t, []uint{percent.ID}, ids(found))

		found, _, err = s.Posts.List(ctx, PostQuery{Limit: 10, Search: "l_h"})
		require.NoError(t, err)
		assert.Equal(t, []uint{underscore.ID}, ids(found))

		tagged, _, err := s.Posts.List(ctx, PostQuery{Limit: 10, Tag: "a_b"})
		require.NoError(t, err)
		assert.Equal(t, []uint{percent.ID}, ids(tagged))
	})
}

func TestPostRepository_AnonymousViewsWithCache(t *testing.T) {
	c, mr := openCache(t)
	s := NewGormStore(openSQLite(t), c)
	ctx := context.Background()
	u := mustUser(t, s, "v@example.com", "viewer", "Viewer")
	p := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "Lobé falls", IsPublic: true})

	got, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, got.ViewsCount)
	assert.True(t, mr.Exists(cache.PostKey(p.ID)))

	for want := 1; want <= 3; want++ {
		require.NoError(t, s.Posts.IncrementViews(ctx, p.ID))
		assert.False(t, mr.Exists(cache.PostKey(p.ID)))

		got, err = s.Posts.GetByID(ctx, p.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got.ViewsCount)
	}
}

func TestUserRepository_UpdateKeepsPassword(t *testing.T) {
	c, _ := openCache(t)
	s := NewGormStore(openSQLite(t), c)
	ctx := context.Background()
	u := mustUser(t, s, "k@example.com", "keeper", "Keeper")

	got, err := s.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "Keeper Renamed"
	require.NoError(t, s.Users.Update(ctx, got))

	reread, err := s.Users.GetByEmail(ctx, "k@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Keeper Renamed", reread.Name)
	assert.Equal(t, "hash", reread.Password)
}

func TestPosts_ToggleLikeTwiceRestoresState(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "l@example.com", "liker", "Liker")
		p := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "like me", IsPublic: true})

		liked, count, err := s.Posts.ToggleLike(ctx, p.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, count)

		got, _ := s.Posts.GetByID(ctx, p.ID, u.ID)
		assert.True(t, got.IsLiked)
		assert.Equal(t, 1, got.LikesCount)

		liked, count, err = s.Posts.ToggleLike(ctx, p.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, count)

		got, _ = s.Posts.GetByID(ctx, p.ID, u.ID)
		assert.False(t, got.IsLiked)
		assert.Equal(t, 0, got.LikesCount)

		_, _, err = s.Posts.ToggleLike(ctx, 9999, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPosts_ToggleSaveAndSavedList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "b@example.com", "bookmarker", "Bookmarker")
		p1 := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "one", IsPublic: true})
		mustPost(t, s, &models.Post{UserID: u.ID, Caption: "two", IsPublic: true})

		saved, err := s.Posts.ToggleSave(ctx, p1.ID, u.ID)
		require.NoError(t, err)
		assert.True(t, saved)

		list, total, err := s.Posts.List(ctx, PostQuery{Limit: 10, ViewerID: u.ID, SavedBy: u.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.True(t, list[0].IsSaved)

		saved, err = s.Posts.ToggleSave(ctx, p1.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, saved)

		_, total, _ = s.Posts.List(ctx, PostQuery{Limit: 10, ViewerID: u.ID, SavedBy: u.ID})
		assert.Zero(t, total)
	})
}

func TestPosts_UpdateAndViews(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "e@example.com", "editor", "Editor")
		p := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "before", IsPublic: true})

		p.Caption = "after"
		p.IsPublic = false
		p.Tags = []string{"edited"}
		require.NoError(t, s.Posts.Update(ctx, p))
		require.NoError(t, s.Posts.IncrementViews(ctx, p.ID))
		require.NoError(t, s.Posts.IncrementViews(ctx, p.ID))

		got, _ := s.Posts.GetByID(ctx, p.ID, u.ID)
		require.NotNil(t, got)
		assert.Equal(t, "after", got.Caption)
		assert.False(t, got.IsPublic)
		assert.Equal(t, []string{"edited"}, got.Tags)
		assert.Equal(t, 2, got.ViewsCount)

		assert.ErrorIs(t, s.Posts.Update(ctx, &models.Post{ID: 4242, Status: models.StatusPublished}), ErrNotFound)
	})
}

func TestComments_CountsAndPreview(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		author := mustUser(t, s, "c@example.com", "poster", "Poster")
		fan := mustUser(t, s, "f@example.com", "fan", "Fan")
		p := mustPost(t, s, &models.Post{UserID: author.ID, Caption: "comment me", IsPublic: true})

		base := time.Now().Add(-time.Hour)
		var created []*models.Comment
		for i, text := range []string{"first", "second", "third", "fourth"} {
			c := &models.Comment{PostID: p.ID, UserID: fan.ID, Content: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
			count, err := s.Comments.Create(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, i+1, count)
			assert.Equal(t, "fan", c.Username)
			created = append(created, c)
		}

		got, _ := s.Posts.GetByID(ctx, p.ID, 0)
		assert.Equal(t, 4, got.CommentsCount)
		require.Len(t, got.RecentComments, models.MaxRecentComments)
		assert.Equal(t, "fourth", got.RecentComments[0].Content)
		assert.Equal(t, "fan", got.RecentComments[0].Username)

		parentID := created[0].ID
		reply := &models.Comment{PostID: p.ID, UserID: author.ID, Content: "thanks", ParentCommentID: &parentID}
		count, err := s.Comments.Create(ctx, reply)
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		parent, _ := s.Comments.GetByID(ctx, parentID)
		assert.Equal(t, 1, parent.RepliesCount)

		list, err := s.Comments.ListByPost(ctx, p.ID, 0, 0)
		require.NoError(t, err)
		require.Len(t, list, 5)
		assert.Equal(t, "first", list[0].Content)

		// Removing the parent takes its reply along.
		count, err = s.Comments.Delete(ctx, parentID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		gone, err := s.Comments.GetByID(ctx, reply.ID)
		assert.NoError(t, err)
		assert.Nil(t, gone)

		edit := created[1]
		edit.Content = "second, edited"
		require.NoError(t, s.Comments.Update(ctx, edit))
		reread, _ := s.Comments.GetByID(ctx, edit.ID)
		assert.True(t, reread.IsEdited)
		assert.Equal(t, "second, edited", reread.Content)
	})
}

func TestComments_RejectsForeignParent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u := mustUser(t, s, "p@example.com", "parent", "Parent")
		p1 := mustPost(t, s, &models.Post{UserID: u.ID, IsPublic: true})
		p2 := mustPost(t, s, &models.Post{UserID: u.ID, IsPublic: true})

		c := &models.Comment{PostID: p1.ID, UserID: u.ID, Content: "on p1"}
		_, err := s.Comments.Create(ctx, c)
		require.NoError(t, err)

		_, err = s.Comments.Create(ctx, &models.Comment{PostID: p2.ID, UserID: u.ID, Content: "x", ParentCommentID: &c.ID})
		assert.ErrorIs(t, err, ErrInvalidParent)

		_, err = s.Comments.Create(ctx, &models.Comment{PostID: 777, UserID: u.ID, Content: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPosts_MissingAuthorUsesPlaceholder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := mustPost(t, s, &models.Post{UserID: 4040, Caption: "orphan", IsPublic: true})

		got, err := s.Posts.GetByID(ctx, p.ID, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.User)
		assert.Equal(t, uint(4040), got.User.ID)
		assert.Equal(t, "Unknown traveler", got.User.Name)
	})
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	s := NewMemoryStore().Store()
	ctx := context.Background()
	u := mustUser(t, s, "copy@example.com", "copier", "Copier")
	p := mustPost(t, s, &models.Post{UserID: u.ID, Caption: "original", IsPublic: true, Tags: []string{"a"}})

	got, _ := s.Posts.GetByID(ctx, p.ID, 0)
	got.Caption = "mutated"
	got.Tags[0] = "b"

	again, _ := s.Posts.GetByID(ctx, p.ID, 0)
	assert.Equal(t, "original", again.Caption)
	assert.Equal(t, []string{"a"}, again.Tags)
}

func ids(posts []*models.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
