package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

var (
	regions = []string{
		"Adamawa", "Centre", "East", "Far North", "Littoral",
		"North", "North-West", "South", "South-West", "West",
	}
	sceneTags = []string{
		"beach", "mountain", "waterfall", "forest", "lake", "market",
		"culture", "wildlife", "city", "sunset", "desert", "river",
	}
	projections = []string{"equirectangular", "cubemap"}
)

// Factory builds random panorama posts for load and demo data.
type Factory struct {
	faker  *gofakeit.Faker
	now    time.Time
	maxAge time.Duration
}

// NewFactory creates a deterministic factory for a given seed.
func NewFactory(seed int64) *Factory {
	return &Factory{
		faker:  gofakeit.New(seed),
		now:    time.Now(),
		maxAge: 90 * 24 * time.Hour,
	}
}

// BuildPost constructs an unsaved post by author.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	fk := f.faker
	want := fk.Number(1, 3)
	tags := make([]string, 0, want)
	for len(tags) < want {
		t := fk.RandomString(sceneTags)
		if !contains(tags, t) {
			tags = append(tags, t)
		}
	}

	age := time.Duration(fk.Number(0, int(f.maxAge/time.Minute))) * time.Minute
	post := &models.Post{
		UserID:   author.ID,
		Caption:  strings.TrimSuffix(fk.Sentence(fk.Number(4, 9)), "."),
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/4096/2048", fk.UUID()),
		Location: fmt.Sprintf("%s, %s", fk.City(), fk.RandomString(regions)),
		Tags:     tags,
		IsPublic: fk.Number(1, 10) > 1,
		Status:   models.StatusPublished,
		ImageMetadata: models.ImageMetadata{
			Width:      4096,
			Height:     2048,
			Format:     "jpeg",
			SizeBytes:  int64(fk.Number(800_000, 6_000_000)),
			Projection: fk.RandomString(projections),
		},
		CreatedAt: f.now.Add(-age),
	}
	for _, o := range overrides {
		o(post)
	}
	return post
}

// CreatePosts persists n random posts spread over authors.
func (f *Factory) CreatePosts(ctx context.Context, store repository.Store, authors []*models.User, n int) ([]*models.Post, error) {
	if len(authors) == 0 || n <= 0 {
		return nil, nil
	}
	out := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := f.BuildPost(authors[i%len(authors)])
		if err := store.Posts.Create(ctx, p); err != nil {
			return out, fmt.Errorf("create fake post %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// FakePosts adds n random posts authored by the demo travellers already in
// store. It returns how many posts were created.
func FakePosts(ctx context.Context, store repository.Store, n int, seed int64) (int, error) {
	fx, err := Load()
	if err != nil {
		return 0, err
	}
	var authors []*models.User
	for _, uf := range fx.Users {
		u, err := store.Users.GetByUsername(ctx, uf.Username)
		if err != nil {
			return 0, err
		}
		if u != nil && !u.IsAdmin() {
			authors = append(authors, u)
		}
	}
	if len(authors) == 0 {
		return 0, fmt.Errorf("no demo users to author fake posts; seed demo data first")
	}
	posts, err := NewFactory(seed).CreatePosts(ctx, store, authors, n)
	return len(posts), err
}
