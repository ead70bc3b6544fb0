package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yildiz-fatih/lazybook/internal/auth"
	"github.com/yildiz-fatih/lazybook/internal/cache"
	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/repository"
	"github.com/yildiz-fatih/lazybook/pkg/log"
	"github.com/yildiz-fatih/lazybook/pkg/storage"
)

// identityService implements IdentityService.
type identityService struct {
	users    repository.UserRepository
	follows  repository.FollowRepository
	cache    cache.UserCache // nil when caching is disabled
	cacheTTL time.Duration
	tokens   *auth.Manager
	files    storage.Storage
}

// NewIdentityService creates a new identity service. cache may be nil.
func NewIdentityService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	userCache cache.UserCache,
	cacheTTL time.Duration,
	tokens *auth.Manager,
	files storage.Storage,
) IdentityService {
	return &identityService{
		users:    users,
		follows:  follows,
		cache:    userCache,
		cacheTTL: cacheTTL,
		tokens:   tokens,
		files:    files,
	}
}

// Register creates a new account.
func (s *identityService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	l := log.Ctx(ctx)

	username := strings.TrimSpace(req.Username)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		l.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

// Login verifies credentials and issues a bearer token.
func (s *identityService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get user by username")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, user.ID).Msg("failed to generate token")
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	}, nil
}

// ResolveCredential validates a bearer token and returns the account
// it belongs to.
func (s *identityService) ResolveCredential(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.getUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// UserExists reports whether a user id resolves to an account.
func (s *identityService) UserExists(ctx context.Context, id uint) (bool, error) {
	_, err := s.getUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListUsers returns all accounts ascending by id.
func (s *identityService) ListUsers(ctx context.Context) ([]domain.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, users[i].ToResponse())
	}
	return resp, nil
}

// Profile returns a user's profile with follow counts and the viewer's
// relationship to it.
func (s *identityService) Profile(ctx context.Context, targetID, viewerID uint) (*domain.ProfileResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.getUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	followers, err := s.follows.CountFollowers(ctx, targetID)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, targetID).Msg("failed to count followers")
		return nil, err
	}
	following, err := s.follows.CountFollowing(ctx, targetID)
	if err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, targetID).Msg("failed to count following")
		return nil, err
	}

	rel := domain.Relationship{IsSelf: targetID == viewerID}
	if !rel.IsSelf {
		if rel.IFollow, err = s.follows.IsFollowing(ctx, viewerID, targetID); err != nil {
			return nil, err
		}
		if rel.FollowsMe, err = s.follows.IsFollowing(ctx, targetID, viewerID); err != nil {
			return nil, err
		}
	}

	return &domain.ProfileResponse{
		ID:             user.ID,
		Username:       user.Username,
		Status:         user.Status,
		PictureURL:     user.PictureURL,
		FollowersCount: followers,
		FollowingCount: following,
		Relationship:   rel,
	}, nil
}

// UpdateStatus sets the user's status text.
func (s *identityService) UpdateStatus(ctx context.Context, id uint, status string) (*domain.UserResponse, error) {
	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, id)

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

// UploadPicture stores a profile picture and records its URL on the
// account. Stored files get unique names so uploads never collide.
func (s *identityService) UploadPicture(ctx context.Context, id uint, r io.Reader, size int64, contentType, filename string) (string, error) {
	l := log.Ctx(ctx)

	if _, err := s.getUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	key := fmt.Sprintf("uploads/%s%s", uuid.New().String(), filepath.Ext(filename))
	if err := s.files.Write(ctx, key, r, size, contentType); err != nil {
		l.Error().Err(err).Uint(log.FieldUserID, id).Msg("failed to store picture")
		return "", err
	}

	url, err := s.files.GetURL(ctx, key, 0)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdatePictureURL(ctx, id, url); err != nil {
		return "", err
	}
	s.invalidate(ctx, id)

	return url, nil
}

// getUser reads through the cache when one is configured. Cache
// failures degrade to repository reads.
func (s *identityService) getUser(ctx context.Context, id uint) (*domain.User, error) {
	if s.cache != nil {
		if user, err := s.cache.GetByID(ctx, id); err == nil {
			return user, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Uint(log.FieldUserID, id).Msg("user cache read failed")
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user, s.cacheTTL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Uint(log.FieldUserID, id).Msg("user cache write failed")
		}
	}
	return user, nil
}

func (s *identityService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Ctx(ctx).Warn().Err(err).Uint(log.FieldUserID, id).Msg("user cache invalidation failed")
	}
}
