package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"library-backend/pkg/logger"
)

// RedisBroadcaster publishes events to a Redis channel so every API instance
// can relay them to its own observers.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
}

var _ Publisher = (*RedisBroadcaster)(nil)

func NewRedisBroadcaster(client redis.UniversalClient, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", b.channel, err)
	}
	return nil
}

// RedisRelay feeds events from the Redis channel into the local hub
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
}

func NewRedisRelay(client redis.UniversalClient, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub}
}

// Run blocks until ctx is cancelled or the subscription closes
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	logger.Info("realtime relay subscribed", map[string]interface{}{"channel": r.channel})

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", r.channel)
			}

			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.ErrorWithFields("dropping malformed realtime event", err, map[string]interface{}{
					"channel": r.channel,
				})
				continue
			}

			_ = r.hub.Publish(ctx, evt)
		}
	}
}
