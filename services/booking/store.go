package booking

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound is returned when a session is missing or its idle TTL
// has expired (expiry is how an abandoned lifecycle self-cancels).
var ErrSessionNotFound = errors.New("booking session not found or expired")

// SessionStore holds serialized booking sessions between requester steps.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) ([]byte, error)
	Set(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, sessionID string) error
}

// RedisSessionStore backs SessionStore with Redis; the key TTL doubles as
// the session idle timeout.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.Client.Get(ctx, sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, sessionID string, data []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, sessionID, data, ttl).Err()
}

func (s *RedisSessionStore) Del(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionID).Err()
}
