// Package cache holds read-through caching for user lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"exercise-tracker/internal/models"
)

const userTTL = 5 * time.Minute

// UserCache stores users by id. Misses and failures are both reported as a
// miss plus an error; callers treat the cache as best-effort.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetUser(ctx context.Context, user models.User) error
	Ping(ctx context.Context) error
}

// ErrMiss is returned when the key is not cached.
var ErrMiss = errors.New("cache: miss")

type RedisUserCache struct {
	client *redis.Client
}

func NewRedisUserCache(client *redis.Client) *RedisUserCache {
	return &RedisUserCache{client: client}
}

func userKey(id string) string {
	return "user:" + id
}

func (c *RedisUserCache) GetUser(ctx context.Context, id string) (*models.User, error) {
	raw, err := c.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// SetUser caches the user. Users are immutable, so entries only expire to
// bound memory.
func (c *RedisUserCache) SetUser(ctx context.Context, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, userKey(user.ID), raw, userTTL).Err()
}

func (c *RedisUserCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Nop never caches anything.
type Nop struct{}

func (Nop) GetUser(ctx context.Context, id string) (*models.User, error) {
	return nil, ErrMiss
}

func (Nop) SetUser(ctx context.Context, user models.User) error {
	return nil
}

func (Nop) Ping(ctx context.Context) error {
	return nil
}
