// Package reflection builds per-model context blocks from the semantic
// memory index: the most relevant past conversation snippets for each model
// in the round, with a durable audit record per retrieval.
package reflection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelarena/arena/internal/memory"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

const (
	defaultTopK         = 3
	defaultMinRelevance = 0.7
)

type Reflector struct {
	index        memory.Index
	results      store.AggregationStore
	audits       store.ReflectionAuditStore
	topK         int
	minRelevance float64
	logger       *zerolog.Logger
}

func NewReflector(
	index memory.Index,
	results store.AggregationStore,
	audits store.ReflectionAuditStore,
	logger *zerolog.Logger,
) *Reflector {
	return &Reflector{
		index:        index,
		results:      results,
		audits:       audits,
		topK:         defaultTopK,
		minRelevance: defaultMinRelevance,
		logger:       logger,
	}
}

// Handle queries the memory index once per model in the round, keeps only
// records above the relevance floor, and upserts one context block per
// model. A failed search degrades to an empty block for that model.
func (r *Reflector) Handle(ctx context.Context, event models.AgentEvent) error {
	contexts := make(map[string]string, len(event.Responses))

	for modelID := range event.Responses {
		contexts[modelID] = r.reflect(ctx, modelID, event)
	}

	result := models.AgentResult{
		SessionID: event.SessionID,
		ThreadID:  event.ThreadID,
		Agent:     models.AgentReflection,
		UseCase:   event.UseCase,
		Results:   contexts,
	}
	if _, err := r.results.UpsertAgentResult(ctx, result); err != nil {
		return fmt.Errorf("storing reflection result: %w", err)
	}

	r.logger.Info().
		Str("session_id", event.SessionID).
		Int("models", len(contexts)).
		Msg("reflection round stored")
	return nil
}

func (r *Reflector) reflect(ctx context.Context, modelID string, event models.AgentEvent) string {
	records, err := r.index.Search(ctx, modelID, event.Prompt, r.topK, event.ThreadID)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("model_id", modelID).
			Str("session_id", event.SessionID).
			Msg("memory search failed, empty reflection context")
		return ""
	}

	relevant := records[:0:len(records)]
	for _, record := range records {
		if record.Similarity >= r.minRelevance {
			relevant = append(relevant, record)
		}
	}

	lines := make([]string, 0, len(relevant))
	for idx, record := range relevant {
		lines = append(lines, fmt.Sprintf("[Memory][%d] %s", idx+1, strings.TrimSpace(record.Text)))
	}
	contextBlock := strings.Join(lines, "\n\n")

	now := time.Now().Unix()
	audit := models.ReflectionAudit{
		ID:            fmt.Sprintf("reflection-%s-%s-%d", event.SessionID, modelID, now),
		SessionID:     event.SessionID,
		ThreadID:      event.ThreadID,
		ModelID:       modelID,
		Prompt:        event.Prompt,
		Context:       contextBlock,
		RelevantItems: relevant,
		Timestamp:     now,
	}
	if err := r.audits.SaveReflectionAudit(ctx, audit); err != nil {
		r.logger.Warn().
			Err(err).
			Str("model_id", modelID).
			Str("session_id", event.SessionID).
			Msg("reflection audit save failed")
	}

	return contextBlock
}
