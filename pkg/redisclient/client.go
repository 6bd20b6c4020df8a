// Package redisclient is a thin wrapper over go-redis exposing exactly the
// hash read/write and publish operations pkg/smart.RedisStore and
// cmd/cashctl's notifier need. Adapted from the teacher's pkg/redis/client.go:
// same constructor shape (Ping on connect), same HSet/HGet-per-field pattern,
// same WriteAndPublish pipeline — retargeted from vehicle state fields to
// SMART metric fields and command-completion notifications.
package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps a *redis.Client with the context this module always uses —
// background, no per-call deadline, matching the teacher's own client.
type Client struct {
	rdb *redis.Client
	ctx context.Context
}

// New connects to addr and verifies it with a Ping, exactly as the teacher's
// redis.New does.
func New(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisclient: connect: %w", err)
	}

	return &Client{rdb: rdb, ctx: ctx}, nil
}

// HSetAll writes every entry of fields into the hash at key. Fields already
// in the hash but absent from fields are left as they are; an empty fields
// map writes nothing.
func (c *Client) HSetAll(key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return c.rdb.HSet(c.ctx, key, args...).Err()
}

// HGetAll reads every field of the hash at key.
func (c *Client) HGetAll(key string) (map[string]string, error) {
	return c.rdb.HGetAll(c.ctx, key).Result()
}

// WriteAndPublish writes one hash field and publishes message on channel in
// a single pipeline — the teacher's WriteAndPublishString pattern.
func (c *Client) WriteAndPublish(key, field, value, channel, message string) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(c.ctx, key, field, value)
	pipe.Publish(c.ctx, channel, message)
	_, err := pipe.Exec(c.ctx)
	return err
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
