package repository

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tourismcam/internal/cache"
	"tourismcam/internal/models"
)

type commentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCommentRepository returns a GORM-backed CommentRepository.
func NewCommentRepository(db *gorm.DB, c *cache.Cache) CommentRepository {
	return &commentRepository{db: db, cache: c}
}

func attachCommenter(ctx context.Context, c *models.Comment) {
	if c.User == nil {
		slog.WarnContext(ctx, "joined user missing, using placeholder",
			slog.Uint64("comment_id", uint64(c.ID)), slog.Uint64("user_id", uint64(c.UserID)))
		c.User = models.PlaceholderUser(c.UserID)
	}
	c.AttachUser(c.User)
}

func commentsCount(tx *gorm.DB, postID uint) (int, error) {
	var count int
	err := tx.Unscoped().Model(&models.Post{}).Select("comments_count").Where("id = ?", postID).Scan(&count).Error
	return count, err
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (int, error) {
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, comment.PostID).Error; err != nil {
			return translate(err)
		}
		if comment.ParentCommentID != nil {
			var parent models.Comment
			err := tx.Select("id", "post_id").First(&parent, *comment.ParentCommentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.PostID != comment.PostID) {
				return ErrInvalidParent
			}
			if err != nil {
				return err
			}
		}

		comment.IsEdited = false
		comment.RepliesCount = 0
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error; err != nil {
			return err
		}
		if comment.ParentCommentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentCommentID).
				UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error; err != nil {
				return err
			}
		}

		var err error
		count, err = commentsCount(tx, comment.PostID)
		return err
	})
	if err != nil {
		return 0, err
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, comment.UserID).Error; err == nil {
		comment.AttachUser(&user)
	} else {
		attachCommenter(ctx, comment)
	}
	r.cache.InvalidatePost(ctx, comment.PostID)
	return count, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	attachCommenter(ctx, &comment)
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	db := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	if err := db.Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		attachCommenter(ctx, c)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
		"content":   comment.Content,
		"is_edited": true,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	comment.IsEdited = true
	r.cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (int, error) {
	var count int
	var postID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Comment
		if err := tx.First(&target, id).Error; err != nil {
			return translate(err)
		}
		postID = target.PostID

		// Collect the comment and every reply below it.
		doomed := []uint{id}
		frontier := []uint{id}
		for len(frontier) > 0 {
			var next []uint
			if err := tx.Model(&models.Comment{}).Where("parent_comment_id IN ?", frontier).
				Pluck("id", &next).Error; err != nil {
				return err
			}
			doomed = append(doomed, next...)
			frontier = next
		}

		if err := tx.Where("id IN ?", doomed).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if target.ParentCommentID != nil {
			if err := tx.Model(&models.Comment{}).Where("id = ? AND replies_count > 0", *target.ParentCommentID).
				UpdateColumn("replies_count", gorm.Expr("replies_count - 1")).Error; err != nil {
				return err
			}
		}
		n := len(doomed)
		if err := tx.Unscoped().Model(&models.Post{}).Where("id = ?", target.PostID).
			UpdateColumn("comments_count", gorm.Expr("CASE WHEN comments_count > ? THEN comments_count - ? ELSE 0 END", n, n)).Error; err != nil {
			return err
		}

		var err error
		count, err = commentsCount(tx, target.PostID)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.cache.InvalidatePost(ctx, postID)
	return count, nil
}

// NewGormStore wires the GORM repositories over db.
func NewGormStore(db *gorm.DB, c *cache.Cache) Store {
	return Store{
		Users:    NewUserRepository(db),
		Posts:    NewPostRepository(db, c),
		Comments: NewCommentRepository(db, c),
	}
}
