// Package notify broadcasts inspection events and creates due-inspection
// notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
)

// Channel is the Redis channel events are published on.
const Channel = "inspecasa:events"

var (
	_ inspection.Publisher = LogPublisher{}
	_ inspection.Publisher = (*RedisPublisher)(nil)
)

// LogPublisher only logs events.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev model.Event) error {
	slog.Info("event", "type", ev.Type, "property", ev.PropertyID, "report", ev.ReportID)
	return nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes events as JSON on a Redis channel so other
// instances and clients can refresh their views.
type RedisPublisher struct {
	client  redisPublisher
	closer  func() error
	channel string
}

// NewRedisPublisher connects to the Redis server at url, e.g.
// "redis://localhost:6379/0".
func NewRedisPublisher(ctx context.Context, url string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisPublisher{client: client, closer: client.Close, channel: Channel}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev model.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Type, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
