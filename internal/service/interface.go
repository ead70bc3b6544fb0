package service

import (
	"context"
	"errors"
	"io"

	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/hub"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfAction         = errors.New("cannot perform this action on yourself")
	ErrAlreadyFollowing   = errors.New("already following")
	ErrNotFollowing       = errors.New("not following")
)

// IdentityService owns accounts, credentials and profile reads. The
// chat subsystem depends on it only for ResolveCredential and
// UserExists.
type IdentityService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	ResolveCredential(ctx context.Context, token string) (*domain.User, error)
	UserExists(ctx context.Context, id uint) (bool, error)
	ListUsers(ctx context.Context) ([]domain.UserResponse, error)
	Profile(ctx context.Context, targetID, viewerID uint) (*domain.ProfileResponse, error)
	UpdateStatus(ctx context.Context, id uint, status string) (*domain.UserResponse, error)
	UploadPicture(ctx context.Context, id uint, r io.Reader, size int64, contentType, filename string) (string, error)
}

// UserDirectory is the slice of the identity collaborator the chat
// core depends on: it only ever asks whether a user id resolves.
type UserDirectory interface {
	UserExists(ctx context.Context, id uint) (bool, error)
}

// SocialService owns the follow graph.
type SocialService interface {
	Follow(ctx context.Context, followerID, targetID uint) error
	Unfollow(ctx context.Context, followerID, targetID uint) error
	Followers(ctx context.Context, userID uint) ([]domain.UserResponse, error)
	Following(ctx context.Context, userID uint) ([]domain.UserResponse, error)
}

// PostService owns posts and the feed query.
type PostService interface {
	Create(ctx context.Context, userID uint, contents string) (*domain.PostResponse, error)
	ByUser(ctx context.Context, userID uint) ([]domain.PostResponse, error)
	Feed(ctx context.Context, userID uint) ([]domain.PostResponse, error)
}

// ChatService validates, persists and fans out chat traffic for one
// connection at a time.
type ChatService interface {
	// HandleFrame processes one inbound frame from an active
	// connection. Failures are reported to the originating connection
	// as structured error frames; nothing is returned to the caller.
	HandleFrame(ctx context.Context, c *hub.Client, raw []byte)
	// History returns the conversation between the caller and a peer.
	History(ctx context.Context, userID, peerID uint) ([]domain.MessageResponse, error)
}
