// Package cache is a thin, strictly advisory Redis layer.
//
// When Redis is down or was never configured, every operation degrades to a
// no-op and callers fall through to the database. Stock truth never lives
// here; the in-memory catalog cache in app/services owns that.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alenadem/stonecart/config"
)

const opTimeout = 250 * time.Millisecond

var rdb *redis.Client

// Connect dials Redis using the configured address and verifies it with a
// ping. On failure the package stays in no-op mode and the error is returned
// so the caller can log a warning and carry on.
func Connect() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	rdb = client
	return nil
}

// Get reads the JSON value stored under key into dest.
// Reports whether it was a hit; misses and transport errors look the same.
func Get(key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value as JSON under key for the given TTL.
func Set(key string, value interface{}, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return rdb.Set(ctx, key, data, ttl).Err()
}

// Del drops one or more keys. Unknown keys are not an error.
func Del(keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return rdb.Del(ctx, keys...).Err()
}
