package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/trivia-api/internal/trivia"
	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

// DefaultChannel is the Redis Pub/Sub channel carrying question events.
const DefaultChannel = "trivia:questions"

// RedisPublisher publishes events on a Redis channel so every API instance's
// Broadcaster can relay them.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

var _ trivia.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt trivia.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// LocalPublisher broadcasts straight into the hub of this process.
type LocalPublisher struct {
	hub *ws.Hub
}

var _ trivia.EventPublisher = (*LocalPublisher)(nil)

func NewLocalPublisher(hub *ws.Hub) *LocalPublisher {
	return &LocalPublisher{hub: hub}
}

func (p *LocalPublisher) Publish(_ context.Context, evt trivia.Event) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	return p.hub.BroadcastAll(msg)
}
