package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream lead notifications are appended to
const DefaultStream = "site-engine:leads"

// RedisNotifier appends notifications to a capped Redis stream so other
// services can consume new leads
type RedisNotifier struct {
	BaseNotifier
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisNotifier creates a Redis stream notifier
func NewRedisNotifier(client *redis.Client, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{
		BaseNotifier: BaseNotifier{name: "redis"},
		client:       client,
		stream:       stream,
		maxLen:       10000,
	}
}

// Notify appends the notification to the stream
func (r *RedisNotifier) Notify(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	values := map[string]any{
		"kind":    string(n.Kind),
		"subject": n.Subject,
		"payload": payload,
	}
	if n.Lead != nil {
		values["lead_id"] = n.Lead.ID
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", r.stream, err)
	}
	return nil
}

// HealthCheck checks if Redis is reachable
func (r *RedisNotifier) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
