// Package dispatch publishes one AgentEvent per downstream agent kind after
// a planner round completes.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelarena/arena/internal/models"
	"github.com/redis/go-redis/v9"
)

// StreamPrefix leads every agent event stream; the agent kind completes the
// name (arena:events:evaluator, arena:events:judge, arena:events:reflection).
const StreamPrefix = "arena:events:"

// StreamFor returns the stream name an agent kind's events are published to.
func StreamFor(agent models.AgentKind) string {
	return StreamPrefix + string(agent)
}

// Publisher appends one event to a named stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, event models.AgentEvent) error
}

// RedisPublisher appends events to Redis Streams as a single JSON payload
// field, the same envelope the consumers decode.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event models.AgentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing agent event: %w", err)
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"payload": string(payload)},
	}).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", stream, err)
	}

	return nil
}
