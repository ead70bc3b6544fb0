package repository

import (
	"context"
	"errors"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	UpdatePictureURL(ctx context.Context, id uint, url string) error
	Exists(ctx context.Context, id uint) (bool, error)
}

// FollowRepository provides access to the follow graph.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID uint) error
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]domain.User, error)
	Following(ctx context.Context, userID uint) ([]domain.User, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

// PostRepository provides access to posts and the feed query.
type PostRepository interface {
	Create(ctx context.Context, userID uint, contents string) (*domain.Post, error)
	ByAuthor(ctx context.Context, userID uint) ([]domain.Post, error)
	Feed(ctx context.Context, userID uint) ([]domain.Post, error)
}

// MessageRepository is the durable append-only store for chat messages.
type MessageRepository interface {
	// Append persists a new message and returns it with its assigned
	// id and timestamp.
	Append(ctx context.Context, senderID, recipientID uint, contents string) (*domain.Message, error)
	// History returns all messages exchanged between the two users in
	// either direction, ascending by (created_at, id).
	History(ctx context.Context, userA, userB uint) ([]domain.Message, error)
}
