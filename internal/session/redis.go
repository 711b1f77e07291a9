package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis under TTL keys, for deployments
// running more than one process instance. Expiry is passive: there is no
// closing notice, the next inbound message simply restarts the greeting.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a Redis-backed store with the given inactivity window
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "session:"}
}

func (r *RedisStore) key(phone string) string {
	return r.prefix + phone
}

// Get returns the session for the identity, or nil when none exists
func (r *RedisStore) Get(ctx context.Context, phone string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(phone)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// Put stores the session under a fresh TTL
func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	s.LastActivity = time.Now()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.Phone), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Touch resets the key's TTL without rewriting the value
func (r *RedisStore) Touch(ctx context.Context, phone string) error {
	if err := r.client.Expire(ctx, r.key(phone), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete removes the session key
func (r *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := r.client.Del(ctx, r.key(phone)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
