package cache

import (
	"context"
	"errors"
	"time"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// UserCache is a read-through cache for user lookups. It sits in front
// of the user repository on the hot paths (websocket recipient checks,
// profile reads). A failing cache degrades to a miss, never an error
// surfaced to callers.
type UserCache interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	Set(ctx context.Context, user *domain.User, ttl time.Duration) error
	Invalidate(ctx context.Context, id uint) error
	Close() error
}
