package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dumu-tech/wa-relay/internal/core"
)

// Topic publishes webhook notifications onto a Redis pub/sub channel and
// hands out subscriptions for the fan-out consumer.
type Topic struct {
	client  *redis.Client
	channel string
}

// NewTopic creates a topic bound to a channel name
func NewTopic(client *redis.Client, channel string) *Topic {
	return &Topic{client: client, channel: channel}
}

// Publish sends a notification to all subscribers of the channel
func (t *Topic) Publish(ctx context.Context, n core.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := t.client.Publish(ctx, t.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe opens a subscription on the topic channel. The caller owns the
// returned PubSub and must Close it.
func (t *Topic) Subscribe(ctx context.Context) *redis.PubSub {
	return t.client.Subscribe(ctx, t.channel)
}
