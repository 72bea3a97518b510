// Package orchestrator runs the compare workflow: session metadata, the
// synchronous planner fan-out, then the fire-and-forget dispatch to the
// downstream agents.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelarena/arena/internal/dispatch"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/planner"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

// Request is one compare invocation as received from the API or MCP surface.
type Request struct {
	SessionID    string
	ThreadID     string
	UseCase      models.UseCase
	Prompt       string
	SystemPrompt string
	Models       []string
}

// Response is returned to the caller as soon as the round is dispatched;
// agent results arrive asynchronously and are read through the results API.
type Response struct {
	SessionID   string                            `json:"session_id"`
	ThreadID    string                            `json:"thread_id"`
	Completions map[string]models.ModelCompletion `json:"completions"`
	Dispatched  bool                              `json:"dispatched"`
}

type Orchestrator struct {
	planner    *planner.Planner
	dispatcher *dispatch.Dispatcher
	sessions   store.SessionStore
	logger     *zerolog.Logger
}

func NewOrchestrator(
	p *planner.Planner,
	d *dispatch.Dispatcher,
	sessions store.SessionStore,
	logger *zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		planner:    p,
		dispatcher: d,
		sessions:   sessions,
		logger:     logger,
	}
}

// Execute runs one round end to end. The planner part is synchronous; the
// downstream agents run whenever their consumers pick the events up.
func (o *Orchestrator) Execute(ctx context.Context, request Request) (*Response, error) {
	if strings.TrimSpace(request.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if request.ThreadID == "" {
		request.ThreadID = newThreadID(request.SessionID)
	}
	if request.UseCase == "" {
		request.UseCase = models.UseCaseZeroShot
	}

	metadata := map[string]any{
		"thread_id":   request.ThreadID,
		"use_case_id": string(request.UseCase),
		"models":      request.Models,
		"created_at":  time.Now().Unix(),
	}
	if err := o.sessions.SaveSessionMetadata(ctx, request.SessionID, metadata); err != nil {
		o.logger.Warn().
			Err(err).
			Str("session_id", request.SessionID).
			Msg("session metadata save failed")
	}

	round, err := o.planner.Run(ctx, planner.Request{
		SessionID:    request.SessionID,
		ThreadID:     request.ThreadID,
		UseCase:      request.UseCase,
		Prompt:       request.Prompt,
		SystemPrompt: request.SystemPrompt,
		Models:       request.Models,
	})
	if err != nil {
		return nil, fmt.Errorf("planner round failed: %w", err)
	}

	dispatched := o.dispatcher.Dispatch(ctx, round)

	return &Response{
		SessionID:   round.SessionID,
		ThreadID:    round.ThreadID,
		Completions: round.Completions,
		Dispatched:  dispatched,
	}, nil
}

// newThreadID derives a fresh thread id from the session: the first eight
// characters of the session id joined to eight random hex characters.
func newThreadID(sessionID string) string {
	prefix := sessionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + suffix
}
