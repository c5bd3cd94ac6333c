package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestTokenRepo(t *testing.T) (*TokenRepo, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewTokenRepo(rdb), mr
}

func TestBlacklistThenCheck(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	ctx := context.Background()

	revoked, err := repo.IsBlacklisted(ctx, "some.jwt.token")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, repo.Blacklist(ctx, "some.jwt.token", 2*time.Hour))

	revoked, err = repo.IsBlacklisted(ctx, "some.jwt.token")
	require.NoError(t, err)
	require.True(t, revoked)

	// The entry is namespaced by the raw token, with the configured TTL.
	require.Equal(t, 2*time.Hour, mr.TTL("blacklist_some.jwt.token"))

	// A different token stays clean.
	revoked, err = repo.IsBlacklisted(ctx, "other.jwt.token")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestBlacklistEntryExpires(t *testing.T) {
	repo, mr := newTestTokenRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "tok", 2*time.Hour))

	mr.FastForward(2*time.Hour + time.Second)

	revoked, err := repo.IsBlacklisted(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked, "entry must vanish once the token's lifetime has passed")
}

func TestBlacklistRemove(t *testing.T) {
	repo, _ := newTestTokenRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "tok", time.Hour))
	require.NoError(t, repo.Remove(ctx, "tok"))

	revoked, err := repo.IsBlacklisted(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked)
}
