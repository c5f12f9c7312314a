package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client with health checking.
type Client struct {
	*redis.Client
}

// New creates a Redis client from a URL. Returns nil if the URL is empty
// (Redis not configured; the realtime relay is optional).
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// PublishEvent publishes a raw payload on the given channel.
func (c *Client) PublishEvent(ctx context.Context, channel string, payload []byte) error {
	return c.Publish(ctx, channel, payload).Err()
}

// SubscribeEvents subscribes to the given channel and returns the raw
// payload stream plus a close function. The stream closes when the
// subscription does.
func (c *Client) SubscribeEvents(ctx context.Context, channel string) (<-chan []byte, func() error) {
	sub := c.Subscribe(ctx, channel)
	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close
}
