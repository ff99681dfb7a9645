package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore is the process-wide auth session store. Issued tokens are
// written here on login/signup and removed on logout, so a revoked token
// stops working immediately even though the JWT itself is still unexpired.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func New(redisAddr string, db int, ttl time.Duration) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   db,
	})

	return &SessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Put(ctx context.Context, token, userID string) error {
	return s.client.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err()
}

func (s *SessionStore) Remove(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

// Lookup returns the user ID a token was issued to, or found=false when the
// token is unknown or revoked.
func (s *SessionStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	userID, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return userID, true, nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}
