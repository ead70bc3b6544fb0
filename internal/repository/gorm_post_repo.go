package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

// GormPostRepository implements PostRepository using GORM.
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-based post repository.
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

// Create persists a new post.
func (r *GormPostRepository) Create(ctx context.Context, userID uint, contents string) (*domain.Post, error) {
	model := &domain.PostModel{
		UserID:   userID,
		Contents: contents,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}

	var username string
	if err := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Where("id = ?", userID).
		Pluck("username", &username).Error; err != nil {
		return nil, err
	}

	return &domain.Post{
		ID:        model.ID,
		UserID:    model.UserID,
		Username:  username,
		Contents:  model.Contents,
		CreatedAt: model.CreatedAt,
	}, nil
}

// ByAuthor returns a user's posts, newest first.
func (r *GormPostRepository) ByAuthor(ctx context.Context, userID uint) ([]domain.Post, error) {
	return r.queryPosts(ctx, r.db.WithContext(ctx).
		Table("posts").
		Select("posts.id, posts.user_id, users.username, posts.contents, posts.created_at").
		Joins("JOIN users ON users.id = posts.user_id").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at desc"))
}

// Feed returns posts authored by users that userID follows, newest first.
func (r *GormPostRepository) Feed(ctx context.Context, userID uint) ([]domain.Post, error) {
	return r.queryPosts(ctx, r.db.WithContext(ctx).
		Table("posts").
		Select("posts.id, posts.user_id, users.username, posts.contents, posts.created_at").
		Joins("JOIN users ON users.id = posts.user_id").
		Joins("JOIN follows ON follows.followee_id = posts.user_id").
		Where("follows.follower_id = ?", userID).
		Order("posts.created_at desc"))
}

func (r *GormPostRepository) queryPosts(ctx context.Context, tx *gorm.DB) ([]domain.Post, error) {
	var posts []domain.Post
	if err := tx.Scan(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
