package dispatch

import (
	"context"
	"time"

	"github.com/modelarena/arena/internal/models"
	"github.com/rs/zerolog"
)

// Dispatcher fans a completed round out to the downstream agents: exactly
// one event per agent kind, each carrying the full completion map.
type Dispatcher struct {
	publisher Publisher
	logger    *zerolog.Logger
}

func NewDispatcher(publisher Publisher, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{publisher: publisher, logger: logger}
}

// Dispatch publishes the round and reports whether every event made it onto
// its stream. Publishing is fire-and-forget: a failed publish is logged and
// counted, never retried, and never fails the round.
func (d *Dispatcher) Dispatch(ctx context.Context, round *models.EvaluationRound) bool {
	published := 0

	for _, agent := range models.AllAgentKinds {
		event := models.AgentEvent{
			Agent:     agent,
			SessionID: round.SessionID,
			ThreadID:  round.ThreadID,
			UseCase:   round.UseCase,
			Prompt:    round.Prompt,
			Responses: round.Completions,
			Timestamp: time.Now().UTC(),
		}

		if err := d.publisher.Publish(ctx, StreamFor(agent), event); err != nil {
			d.logger.Error().
				Err(err).
				Str("agent", string(agent)).
				Str("session_id", round.SessionID).
				Msg("event publish failed")
			continue
		}
		published++
	}

	d.logger.Info().
		Str("session_id", round.SessionID).
		Int("published", published).
		Int("expected", len(models.AllAgentKinds)).
		Msg("round dispatched")

	return published == len(models.AllAgentKinds)
}
