package service

import (
	"context"
	"errors"

	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/repository"
	"github.com/yildiz-fatih/lazybook/pkg/log"
)

// socialService implements SocialService.
type socialService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

// NewSocialService creates a new social graph service.
func NewSocialService(users repository.UserRepository, follows repository.FollowRepository) SocialService {
	return &socialService{
		users:   users,
		follows: follows,
	}
}

// Follow records that followerID follows targetID.
func (s *socialService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return ErrSelfAction
	}

	if err := s.ensureExists(ctx, targetID); err != nil {
		return err
	}

	if err := s.follows.Follow(ctx, followerID, targetID); err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			return ErrAlreadyFollowing
		}
		return err
	}

	log.Ctx(ctx).Info().
		Uint(log.FieldUserID, followerID).
		Uint("followee_id", targetID).
		Msg("follow created")
	return nil
}

// Unfollow removes the follow edge from followerID to targetID.
func (s *socialService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return ErrSelfAction
	}

	if err := s.ensureExists(ctx, targetID); err != nil {
		return err
	}

	if err := s.follows.Unfollow(ctx, followerID, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFollowing) {
			return ErrNotFollowing
		}
		return err
	}

	log.Ctx(ctx).Info().
		Uint(log.FieldUserID, followerID).
		Uint("followee_id", targetID).
		Msg("follow removed")
	return nil
}

// Followers returns the users following userID.
func (s *socialService) Followers(ctx context.Context, userID uint) ([]domain.UserResponse, error) {
	if err := s.ensureExists(ctx, userID); err != nil {
		return nil, err
	}

	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

// Following returns the users userID follows.
func (s *socialService) Following(ctx context.Context, userID uint) ([]domain.UserResponse, error) {
	if err := s.ensureExists(ctx, userID); err != nil {
		return nil, err
	}

	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

func (s *socialService) ensureExists(ctx context.Context, userID uint) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func toResponses(users []domain.User) []domain.UserResponse {
	resp := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, users[i].ToResponse())
	}
	return resp
}
