package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourismcam/internal/cache"
	"tourismcam/internal/models"
)

type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPostRepository creates a GORM-backed post repository. Anonymous detail
// reads go through c when it is non-nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c}
}

// visible restricts to posts viewerID may see; soft-deleted rows are already
// excluded by GORM.
func visible(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Where("posts.status = ? AND posts.is_public = ?", models.StatusPublished, true)
	}
	return db.Where("(posts.user_id = ? OR (posts.status = ? AND posts.is_public = ?))",
		viewerID, models.StatusPublished, true)
}

func (r *postRepository) filtered(ctx context.Context, q PostQuery) *gorm.DB {
	db := visible(r.db.WithContext(ctx).Model(&models.Post{}), q.ViewerID)
	if q.AuthorID != 0 {
		db = db.Where("posts.user_id = ?", q.AuthorID)
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		db = db.Where(`(LOWER(posts.caption) LIKE ? ESCAPE '\' OR LOWER(posts.location) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if tag := strings.ToLower(strings.TrimSpace(q.Tag)); tag != "" {
		// tags is a JSON array column; match the quoted element.
		db = db.Where(`posts.tags LIKE ? ESCAPE '\'`, `%"`+escapeLike(tag)+`"%`)
	}
	if q.SavedBy != 0 {
		db = db.Joins("JOIN saved_posts ON saved_posts.post_id = posts.id AND saved_posts.user_id = ?", q.SavedBy)
	}
	return db
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.LikesCount, post.CommentsCount, post.ViewsCount = 0, 0, 0
	if post.Status == "" {
		post.Status = models.StatusPublished
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", post.UserID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
	})
}

func (r *postRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	load := func(dest *models.Post) (bool, error) {
		err := visible(r.db.WithContext(ctx).Model(&models.Post{}), viewerID).
			Preload("User").
			Where("posts.id = ?", id).
			First(dest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, r.enrich(ctx, []*models.Post{dest}, viewerID)
	}

	var post models.Post
	var found bool
	var err error
	if viewerID == 0 {
		found, err = r.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() (bool, error) {
			return load(&post)
		})
	} else {
		found, err = load(&post)
	}
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := []*models.Post{}
	db := r.filtered(ctx, q).
		Select("posts.*").
		Preload("User").
		Order("posts.created_at DESC").
		Order("posts.id DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	if err := db.Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	if err := r.enrich(ctx, posts, q.ViewerID); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// enrich fills the viewer flags, the comment preview and, for dangling
// authors, a placeholder user.
func (r *postRepository) enrich(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		if p.User == nil {
			slog.WarnContext(ctx, "joined user missing, using placeholder",
				slog.Uint64("post_id", uint64(p.ID)), slog.Uint64("user_id", uint64(p.UserID)))
			p.User = models.PlaceholderUser(p.UserID)
		}
	}

	if viewerID != 0 {
		liked, err := r.engagedIDs(ctx, &models.Like{}, viewerID, ids)
		if err != nil {
			return err
		}
		saved, err := r.engagedIDs(ctx, &models.SavedPost{}, viewerID, ids)
		if err != nil {
			return err
		}
		for _, p := range posts {
			p.IsLiked = liked[p.ID]
			p.IsSaved = saved[p.ID]
		}
	}

	for _, p := range posts {
		recent := []*models.Comment{}
		err := r.db.WithContext(ctx).
			Preload("User").
			Where("post_id = ?", p.ID).
			Order("created_at DESC").
			Order("id DESC").
			Limit(models.MaxRecentComments).
			Find(&recent).Error
		if err != nil {
			return err
		}
		for _, c := range recent {
			attachCommenter(ctx, c)
		}
		p.RecentComments = recent
	}
	return nil
}

func (r *postRepository) engagedIDs(ctx context.Context, model interface{}, userID uint, postIDs []uint) (map[uint]bool, error) {
	var hits []uint
	err := r.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &hits).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(hits))
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	// Struct updates run the JSON serializers; Select lets false and empty through.
	res := r.db.WithContext(ctx).Model(post).
		Omit(clause.Associations).
		Select("caption", "location", "tags", "is_public", "status", "image_metadata").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND post_count > 0", post.UserID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err == nil {
		r.cache.InvalidatePost(ctx, id)
	}
	return err
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (bool, int, error) {
	var liked bool
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return translate(err)
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ? AND likes_count > 0", postID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error; err != nil {
				return err
			}
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{UserID: userID, PostID: postID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error; err != nil {
					return err
				}
			}
			liked = true
		}
		return tx.Model(&models.Post{}).Select("likes_count").Where("id = ?", postID).Scan(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	r.cache.InvalidatePost(ctx, postID)
	return liked, count, nil
}

func (r *postRepository) ToggleSave(ctx context.Context, postID, userID uint) (bool, error) {
	var saved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		saved = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SavedPost{UserID: userID, PostID: postID}).Error
	})
	return saved, err
}
