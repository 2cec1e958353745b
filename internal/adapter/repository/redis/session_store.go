package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore implements usecase.SessionStore as a denylist of revoked
// session IDs. Entries expire together with the token they revoke.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:revoked:",
	}
}

// Revoke denylists sessionID for ttl. A non-positive ttl means the token has
// already expired and nothing is stored.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	return s.client.Set(ctx, s.prefix+sessionID, "1", ttl).Err()
}

// IsRevoked reports whether sessionID has been revoked.
func (s *SessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+sessionID).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
