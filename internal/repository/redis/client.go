package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/hexwar/api/pkg/world"
)

// Client stores live threat memory, overlay snapshots and turn timers.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to the Redis server at redisURL.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying returns the raw client for keyspace notifications.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}

func factionField(f world.FactionID) string {
	return strconv.Itoa(int(f))
}

func memoryKey(gameID string, f world.FactionID) string {
	return "game:" + gameID + ":threat:" + factionField(f)
}

func overlayKey(gameID string, f world.FactionID) string {
	return "game:" + gameID + ":overlay:" + factionField(f)
}

func staleKey(gameID string) string     { return "game:" + gameID + ":stale" }
func turnTimerKey(gameID string) string { return "game:" + gameID + ":turn_timer" }
