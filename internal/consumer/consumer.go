package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modelarena/arena/internal/dispatch"
	"github.com/modelarena/arena/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Consumer reads one agent kind's stream through a consumer group and feeds
// decoded events to that kind's handler.
type Consumer struct {
	client       *redis.Client
	agent        models.AgentKind
	stream       string
	groupID      string
	consumerName string
	handler      Handler
	logger       *zerolog.Logger
}

func NewConsumer(
	client *redis.Client,
	agent models.AgentKind,
	groupID string,
	consumerName string,
	handler Handler,
	logger *zerolog.Logger,
) *Consumer {
	return &Consumer{
		client:       client,
		agent:        agent,
		stream:       dispatch.StreamFor(agent),
		groupID:      groupID,
		consumerName: consumerName,
		handler:      handler,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgs, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).Str("stream", c.stream).Msg("failed to read from stream")
			continue
		}

		for _, msg := range msgs[0].Messages {
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Info().Str("id", msg.ID).Str("stream", c.stream).Msg("message received")

	payload, ok := msg.Values["payload"].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var event models.AgentEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("failed to decode message")
		c.ack(ctx, msg.ID) // bad message — ACK to skip it
		return
	}

	if event.Agent != c.agent {
		c.logger.Warn().
			Str("id", msg.ID).
			Str("event_agent", string(event.Agent)).
			Str("stream_agent", string(c.agent)).
			Msg("event kind does not match stream")
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		// Leave the message pending; the group redelivers it and the
		// handler's idempotent upsert absorbs the replay.
		c.logger.Error().
			Err(err).
			Str("id", msg.ID).
			Str("session_id", event.SessionID).
			Msg("handler failed, message left pending")
		return
	}

	c.logger.Info().
		Str("id", msg.ID).
		Str("session_id", event.SessionID).
		Str("agent", string(event.Agent)).
		Msg("event processed")

	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("failed to ack message")
	}
}
