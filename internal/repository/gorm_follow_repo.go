package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-based follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow records that followerID follows followeeID.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	following, err := r.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if following {
		return ErrAlreadyFollowing
	}

	return r.db.WithContext(ctx).Create(&domain.FollowModel{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}).Error
}

// Unfollow removes the follow edge from followerID to followeeID.
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&domain.FollowModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether the follow edge exists.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// Followers returns the users following userID, newest accounts first.
func (r *GormFollowRepository) Followers(ctx context.Context, userID uint) ([]domain.User, error) {
	return r.joinUsers(ctx,
		"JOIN follows ON follows.follower_id = users.id",
		"follows.followee_id = ?", userID)
}

// Following returns the users userID follows, newest accounts first.
func (r *GormFollowRepository) Following(ctx context.Context, userID uint) ([]domain.User, error) {
	return r.joinUsers(ctx,
		"JOIN follows ON follows.followee_id = users.id",
		"follows.follower_id = ?", userID)
}

// CountFollowers returns the number of users following userID.
func (r *GormFollowRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.countEdges(ctx, "followee_id = ?", userID)
}

// CountFollowing returns the number of users userID follows.
func (r *GormFollowRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.countEdges(ctx, "follower_id = ?", userID)
}

func (r *GormFollowRepository) joinUsers(ctx context.Context, join, where string, userID uint) ([]domain.User, error) {
	var models []domain.UserModel
	result := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Joins(join).
		Where(where, userID).
		Order("users.id desc").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *models[i].ToDomain())
	}
	return users, nil
}

func (r *GormFollowRepository) countEdges(ctx context.Context, where string, userID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where(where, userID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
