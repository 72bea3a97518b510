// Package consumer reads agent events off Redis Streams and routes each one
// to the handler registered for its agent kind.
package consumer

import (
	"context"
	"fmt"

	"github.com/modelarena/arena/internal/models"
)

// Handler processes one delivered agent event. Implementations must be
// idempotent: delivery is at-least-once and a redelivered event replays the
// same upsert.
type Handler interface {
	Handle(ctx context.Context, event models.AgentEvent) error
}

// HandlerTable maps every agent kind to its handler. The table is closed:
// construction fails unless all kinds are covered.
type HandlerTable map[models.AgentKind]Handler

func NewHandlerTable(evaluator, judge, reflection Handler) (HandlerTable, error) {
	table := HandlerTable{
		models.AgentEvaluator:  evaluator,
		models.AgentJudge:      judge,
		models.AgentReflection: reflection,
	}
	for _, agent := range models.AllAgentKinds {
		if table[agent] == nil {
			return nil, fmt.Errorf("no handler for agent kind %s", agent)
		}
	}
	return table, nil
}
