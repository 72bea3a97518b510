// Package planner fans one prompt out to the requested models and collects
// exactly one completion per model, substituting an error sentinel for any
// gateway failure.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelarena/arena/internal/llm"
	"github.com/modelarena/arena/internal/memory"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

// Request carries one round's inputs into the fan-out.
type Request struct {
	SessionID    string
	ThreadID     string
	UseCase      models.UseCase
	Prompt       string
	SystemPrompt string
	Models       []string
}

type Planner struct {
	gateway       llm.Gateway
	conversations store.ConversationStore
	memory        memory.Index
	callTimeout   time.Duration
	temperature   float64
	maxTokens     int
	logger        *zerolog.Logger
}

func NewPlanner(
	gateway llm.Gateway,
	conversations store.ConversationStore,
	memoryIndex memory.Index,
	callTimeout time.Duration,
	temperature float64,
	maxTokens int,
	logger *zerolog.Logger,
) *Planner {
	return &Planner{
		gateway:       gateway,
		conversations: conversations,
		memory:        memoryIndex,
		callTimeout:   callTimeout,
		temperature:   temperature,
		maxTokens:     maxTokens,
		logger:        logger,
	}
}

// Run queries every requested model concurrently and returns a round holding
// one completion per model. A failed call never fails the round; it yields a
// sentinel completion instead.
func (p *Planner) Run(ctx context.Context, request Request) (*models.EvaluationRound, error) {
	if len(request.Models) == 0 {
		return nil, fmt.Errorf("no models requested for session %s", request.SessionID)
	}

	results := make(chan models.ModelCompletion, len(request.Models))
	var wg sync.WaitGroup

	for _, modelID := range request.Models {
		wg.Add(1)
		go func(modelID string) {
			defer wg.Done()
			results <- p.complete(ctx, modelID, request)
		}(modelID)
	}

	wg.Wait()
	close(results)

	round := &models.EvaluationRound{
		SessionID:   request.SessionID,
		ThreadID:    request.ThreadID,
		UseCase:     request.UseCase,
		Prompt:      request.Prompt,
		Models:      request.Models,
		Completions: make(map[string]models.ModelCompletion, len(request.Models)),
		CreatedAt:   time.Now().UTC(),
	}
	for completion := range results {
		round.Completions[completion.ModelID] = completion
	}

	p.logger.Info().
		Str("session_id", request.SessionID).
		Str("thread_id", request.ThreadID).
		Int("models", len(round.Completions)).
		Msg("planner round complete")

	return round, nil
}

func (p *Planner) complete(ctx context.Context, modelID string, request Request) models.ModelCompletion {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	response, err := p.gateway.Complete(callCtx, llm.CompletionRequest{
		ModelID:      modelID,
		Prompt:       request.Prompt,
		SystemPrompt: request.SystemPrompt,
		Temperature:  p.temperature,
		MaxTokens:    p.maxTokens,
	})
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("model_id", modelID).
			Str("session_id", request.SessionID).
			Msg("model call failed, recording sentinel")
		return models.NewErrorCompletion(modelID, err)
	}

	completion := models.ModelCompletion{
		ModelID: modelID,
		Text:    response.Text,
		Latency: response.Latency,
		Tokens: models.TokenUsage{
			PromptTokens:     response.PromptTokens,
			CompletionTokens: response.CompletionTokens,
			TotalTokens:      response.PromptTokens + response.CompletionTokens,
		},
		Safety: response.Safety,
	}

	p.record(ctx, modelID, request, completion)
	return completion
}

// record appends the assistant turn to the conversation log and, best
// effort, to the semantic memory index. Neither failure invalidates the
// completion itself.
func (p *Planner) record(ctx context.Context, modelID string, request Request, completion models.ModelCompletion) {
	status, err := p.conversations.AppendMessage(ctx, modelID, request.ThreadID, "assistant", completion.Text, completion.Tokens.TotalTokens)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("model_id", modelID).
			Str("thread_id", request.ThreadID).
			Msg("conversation append failed")
		return
	}
	if status == store.AppendDuplicateSkipped {
		return
	}

	if p.memory == nil {
		return
	}
	record := models.MemoryRecord{
		ID:        uuid.NewString(),
		Text:      completion.Text,
		ModelID:   modelID,
		ThreadID:  request.ThreadID,
		Role:      "assistant",
		Timestamp: time.Now().Unix(),
	}
	if err := p.memory.SaveMessage(ctx, record); err != nil {
		p.logger.Warn().
			Err(err).
			Str("model_id", modelID).
			Str("thread_id", request.ThreadID).
			Msg("memory index save failed")
	}
}
