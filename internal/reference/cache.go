package reference

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "reference:version"

// Cache keeps the reference lists in Redis. Every key embeds a shared
// version number, so one INCR retires all lists at once and the old keys
// expire with their TTL. A nil Cache caches nothing.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCache builds the cache. ttl applies to every list.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

// key returns "reference:<list>:<version>", creating version 1 on first use.
func (c *Cache) key(ctx context.Context, list string) (string, error) {
	if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
		return "", err
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		return "", err
	}
	return "reference:" + list + ":" + strconv.FormatInt(ver, 10), nil
}

// get decodes a cached list into dest. A miss reports false with no error.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *Cache) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump moves every list to a new version and returns it.
func (c *Cache) Bump(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	return c.client.Incr(ctx, versionKey).Result()
}
