package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"auth-gateway/internal/logger"

	goredis "github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *goredis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) Create(ctx context.Context, userID, email string, extra map[string]any) (string, error) {
	if userID == "" {
		return "", errors.New("session: missing user_id")
	}

	id, err := GenerateID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(Record{UserID: userID, Email: email, Extra: extra})
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}

	if err := r.client.Set(ctx, r.key(id), data, TTL).Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, nil
	}

	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err == goredis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		// Malformed stored data reads as absence.
		logger.Warn("session record malformed, treating as absent", map[string]any{
			"error": err.Error(),
		})
		return nil, nil
	}

	return &rec, nil
}

func (r *RedisStore) Refresh(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("session: missing session id")
	}
	// EXPIRE is a no-op on a missing key, which is the behavior we want.
	return r.client.Expire(ctx, r.key(id), TTL).Err()
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return r.client.Del(ctx, r.key(id)).Err()
}
