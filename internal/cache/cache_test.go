package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"exercise-tracker/internal/models"
)

func TestNopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	var c UserCache = Nop{}

	assert.NoError(t, c.SetUser(ctx, models.User{ID: "u1", Username: "alice"}))
	_, err := c.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Ping(ctx))
}

func TestRedisUserCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisUserCache(client)
	ctx := context.Background()

	_, err := c.GetUser(ctx, "u1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, c.SetUser(ctx, models.User{ID: "u1"}))
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:abc", userKey("abc"))
}
