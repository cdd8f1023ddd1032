// Package seed loads demo data into a repository store. It is intended for
// development, demos and tests only.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"tourismcam/internal/auth"
	"tourismcam/internal/models"
	"tourismcam/internal/repository"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Fixtures is the demo data set.
type Fixtures struct {
	Users    []UserFixture       `yaml:"users"`
	Posts    []PostFixture       `yaml:"posts"`
	Comments []CommentFixture    `yaml:"comments"`
	Likes    []EngagementFixture `yaml:"likes"`
	Saves    []EngagementFixture `yaml:"saves"`
}

type UserFixture struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone"`
	Bio      string `yaml:"bio"`
	Role     string `yaml:"role"`
}

type PostFixture struct {
	Author        string                `yaml:"author"`
	Caption       string                `yaml:"caption"`
	ImageURL      string                `yaml:"image_url"`
	Location      string                `yaml:"location"`
	Tags          []string              `yaml:"tags"`
	Status        string                `yaml:"status"`
	Private       bool                  `yaml:"private"`
	DaysAgo       int                   `yaml:"days_ago"`
	ImageMetadata *models.ImageMetadata `yaml:"image_metadata"`
}

type CommentFixture struct {
	Post    int    `yaml:"post"`
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// EngagementFixture lists the users that liked or saved one post.
type EngagementFixture struct {
	Post  int      `yaml:"post"`
	Users []string `yaml:"users"`
}

// Result counts what Apply created.
type Result struct {
	Users    map[string]*models.User
	Posts    []*models.Post
	Comments int
}

// Load parses the embedded demo fixtures.
func Load() (*Fixtures, error) {
	return Parse(fixturesYAML)
}

// Parse decodes a fixture document.
func Parse(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &fx, nil
}

// Apply writes fx into store. now anchors the posts' days_ago offsets.
func Apply(ctx context.Context, store repository.Store, fx *Fixtures, now time.Time) (*Result, error) {
	res := &Result{Users: make(map[string]*models.User, len(fx.Users))}

	for _, uf := range fx.Users {
		hash, err := auth.HashPassword(uf.Password)
		if err != nil {
			return nil, err
		}
		role := uf.Role
		if role == "" {
			role = models.RoleUser
		}
		u := &models.User{
			Email:    uf.Email,
			Username: uf.Username,
			Name:     uf.Name,
			Phone:    uf.Phone,
			Bio:      uf.Bio,
			Role:     role,
			Password: hash,
		}
		if err := store.Users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", uf.Email, err)
		}
		res.Users[uf.Username] = u
	}

	for i, pf := range fx.Posts {
		author, ok := res.Users[pf.Author]
		if !ok {
			return nil, fmt.Errorf("post %d: unknown author %q", i, pf.Author)
		}
		p := &models.Post{
			UserID:    author.ID,
			Caption:   pf.Caption,
			ImageURL:  pf.ImageURL,
			Location:  pf.Location,
			Tags:      pf.Tags,
			IsPublic:  !pf.Private,
			Status:    pf.Status,
			CreatedAt: now.Add(-time.Duration(pf.DaysAgo) * 24 * time.Hour),
		}
		if p.Status == "" {
			p.Status = models.StatusPublished
		}
		if pf.ImageMetadata != nil {
			p.ImageMetadata = *pf.ImageMetadata
		}
		if err := store.Posts.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("seed post %d: %w", i, err)
		}
		res.Posts = append(res.Posts, p)
	}

	for i, cf := range fx.Comments {
		post, author, err := res.lookup(cf.Post, cf.Author)
		if err != nil {
			return nil, fmt.Errorf("comment %d: %w", i, err)
		}
		c := &models.Comment{PostID: post.ID, UserID: author.ID, Content: cf.Content}
		if _, err := store.Comments.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("seed comment %d: %w", i, err)
		}
		res.Comments++
	}

	for _, lf := range fx.Likes {
		for _, name := range lf.Users {
			post, user, err := res.lookup(lf.Post, name)
			if err != nil {
				return nil, fmt.Errorf("like: %w", err)
			}
			if _, _, err := store.Posts.ToggleLike(ctx, post.ID, user.ID); err != nil {
				return nil, err
			}
		}
	}
	for _, sf := range fx.Saves {
		for _, name := range sf.Users {
			post, user, err := res.lookup(sf.Post, name)
			if err != nil {
				return nil, fmt.Errorf("save: %w", err)
			}
			if _, err := store.Posts.ToggleSave(ctx, post.ID, user.ID); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func (r *Result) lookup(postIdx int, username string) (*models.Post, *models.User, error) {
	if postIdx < 0 || postIdx >= len(r.Posts) {
		return nil, nil, fmt.Errorf("unknown post index %d", postIdx)
	}
	u, ok := r.Users[username]
	if !ok {
		return nil, nil, fmt.Errorf("unknown user %q", username)
	}
	return r.Posts[postIdx], u, nil
}

// Demo seeds the embedded fixtures when the store has no users yet. It
// reports whether anything was written.
func Demo(ctx context.Context, store repository.Store) (bool, error) {
	count, err := store.Users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		log.Printf("seed: store already has %d users, skipping demo data", count)
		return false, nil
	}

	fx, err := Load()
	if err != nil {
		return false, err
	}
	res, err := Apply(ctx, store, fx, time.Now())
	if err != nil {
		return false, err
	}
	log.Printf("seed: created %d users, %d posts, %d comments", len(res.Users), len(res.Posts), res.Comments)
	return true, nil
}
