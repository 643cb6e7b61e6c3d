package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every instance using the
// same Redis: each key may make limit requests per window.
type Redis struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedis returns a Redis limiter. prefix namespaces its keys
// (default "ratelimit:contact:").
func NewRedis(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = "ratelimit:contact:"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Connect parses a redis:// or rediss:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}
	return client, nil
}

// windowKey names the counter for key in the window containing now.
func (l *Redis) windowKey(key string, now time.Time) (string, time.Duration) {
	start := now.Truncate(l.window)
	remaining := start.Add(l.window).Sub(now)
	return l.prefix + key + ":" + strconv.FormatInt(start.Unix(), 10), remaining
}

// Allow increments the window counter for key.
func (l *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k, remaining := l.windowKey(key, l.now())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, l.window+time.Second)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: redis incr: %w", err)
	}
	if incr.Val() > l.limit {
		return false, remaining, nil
	}
	return true, 0, nil
}

// Check pings Redis for the health probe.
func (l *Redis) Check(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (l *Redis) Close() error {
	return l.client.Close()
}
