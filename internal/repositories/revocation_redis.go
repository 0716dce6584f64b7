package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prathamanvekar/video-app/internal/auth"
)

const revokedKeyPrefix = "videoapp:revoked:"

// RedisRevocationStore keeps revoked session ids as expiring Redis keys.
type RedisRevocationStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRevocationStore constructs a revocation store on an existing client.
func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, now: time.Now}
}

// Revoke sets a key that expires when the session would have anyway.
func (s *RedisRevocationStore) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+sessionID, until.UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked session: %w", err)
	}
	return nil
}

// IsRevoked reports whether a revocation key exists for the session id.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := s.client.Get(ctx, revokedKeyPrefix+sessionID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("redis get revoked session: %w", err)
	}
}

var _ auth.RevocationStore = (*RedisRevocationStore)(nil)
