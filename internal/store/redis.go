package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// Redis is a Store keeping each session as a hash "session:<id>" with one
// field per key. Expiry is left to redis, so Purge has nothing to do.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the redis server at url (redis://host:port/db) and
// verifies the connection.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// key generates the redis key for the given session ID
func (r *Redis) key(sessionID string) string {
	return sessionPrefix + sessionID
}

// Get reads one field of the session hash.
func (r *Redis) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	value, err := r.client.HGet(ctx, r.key(sessionID), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session value: %w", err)
	}
	return value, nil
}

// Set writes one field and refreshes the hash TTL in a single transaction.
func (r *Redis) Set(ctx context.Context, sessionID, key string, value []byte) error {
	k := r.key(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, key, value)
		pipe.Expire(ctx, k, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set session value: %w", err)
	}
	return nil
}

// Delete removes one field; redis drops the hash with its last field.
func (r *Redis) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.client.HDel(ctx, r.key(sessionID), key).Err(); err != nil {
		return fmt.Errorf("failed to delete session value: %w", err)
	}
	return nil
}

// Purge is a no-op: keys expire in redis on their own.
func (r *Redis) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close closes the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
