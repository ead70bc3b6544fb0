package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildiz-fatih/lazybook/internal/domain"
)

func newSocialFixture(t *testing.T) (SocialService, *memoryUserRepo, *memoryFollowRepo) {
	t.Helper()
	users := newMemoryUserRepo()
	follows := newMemoryFollowRepo()
	return NewSocialService(users, follows), users, follows
}

func socialSeedUser(t *testing.T, users *memoryUserRepo, username string) uint {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, users.Create(context.Background(), u))
	return u.ID
}

func TestSocial_FollowAndUnfollow(t *testing.T) {
	svc, users, follows := newSocialFixture(t)
	ctx := context.Background()

	alice := socialSeedUser(t, users, "alice")
	bob := socialSeedUser(t, users, "bob")

	require.NoError(t, svc.Follow(ctx, alice, bob))

	following, err := follows.IsFollowing(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, svc.Unfollow(ctx, alice, bob))

	following, err = follows.IsFollowing(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestSocial_FollowErrors(t *testing.T) {
	svc, users, _ := newSocialFixture(t)
	ctx := context.Background()

	alice := socialSeedUser(t, users, "alice")
	bob := socialSeedUser(t, users, "bob")

	assert.ErrorIs(t, svc.Follow(ctx, alice, alice), ErrSelfAction)
	assert.ErrorIs(t, svc.Follow(ctx, alice, 999), ErrUserNotFound)

	require.NoError(t, svc.Follow(ctx, alice, bob))
	assert.ErrorIs(t, svc.Follow(ctx, alice, bob), ErrAlreadyFollowing)
}

func TestSocial_UnfollowErrors(t *testing.T) {
	svc, users, _ := newSocialFixture(t)
	ctx := context.Background()

	alice := socialSeedUser(t, users, "alice")
	bob := socialSeedUser(t, users, "bob")

	assert.ErrorIs(t, svc.Unfollow(ctx, alice, alice), ErrSelfAction)
	assert.ErrorIs(t, svc.Unfollow(ctx, alice, 999), ErrUserNotFound)
	assert.ErrorIs(t, svc.Unfollow(ctx, alice, bob), ErrNotFollowing)
}

func TestSocial_ListsRequireKnownUser(t *testing.T) {
	svc, _, _ := newSocialFixture(t)
	ctx := context.Background()

	_, err := svc.Followers(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Following(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
