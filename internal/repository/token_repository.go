package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// blacklistPrefix namespaces revocation entries in Redis.  The key is the
// prefix concatenated with the raw token string; revocation is by exact
// token value, not by a derived identifier.
const blacklistPrefix = "blacklist_"

// TokenRepo is the revocation store: a Redis-backed blacklist of access
// tokens invalidated before their natural expiry.  Every entry carries a
// TTL no longer than the configured token lifetime, so the blacklist
// never grows past the set of tokens that could still verify.
type TokenRepo struct{ RDB *redis.Client }

func NewTokenRepo(rdb *redis.Client) *TokenRepo { return &TokenRepo{RDB: rdb} }

// Blacklist records a raw token as revoked for ttl.  The value is a
// sentinel; only key existence matters.
func (r *TokenRepo) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	return r.RDB.Set(ctx, blacklistPrefix+token, "true", ttl).Err()
}

// IsBlacklisted reports whether a raw token has been revoked.
func (r *TokenRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := r.RDB.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove deletes a revocation entry.  Used by test teardown; production
// code relies on TTL expiry.
func (r *TokenRepo) Remove(ctx context.Context, token string) error {
	return r.RDB.Del(ctx, blacklistPrefix+token).Err()
}
