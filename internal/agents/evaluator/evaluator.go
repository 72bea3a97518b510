// Package evaluator computes quantitative per-model metrics for one round:
// BLEU, ROUGE-1, ROUGE-L and embedding cosine similarity against the prompt.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/modelarena/arena/internal/embedding"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

type Evaluator struct {
	embedder embedding.Embedder
	results  store.AggregationStore
	logger   *zerolog.Logger
}

func NewEvaluator(embedder embedding.Embedder, results store.AggregationStore, logger *zerolog.Logger) *Evaluator {
	return &Evaluator{
		embedder: embedder,
		results:  results,
		logger:   logger,
	}
}

// Handle scores every scorable completion in the event against the prompt
// and upserts the per-model metrics map. Completions carrying an error
// sentinel or empty text are skipped, never scored as zero.
func (e *Evaluator) Handle(ctx context.Context, event models.AgentEvent) error {
	reference := strings.TrimSpace(event.Prompt)
	scores := make(map[string]models.ModelMetrics)

	if reference == "" {
		e.logger.Warn().
			Str("session_id", event.SessionID).
			Msg("empty prompt, nothing to score against")
	} else {
		referenceTokens := tokenize(reference)
		referenceVector, err := e.embedder.Embed(ctx, reference)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("session_id", event.SessionID).
				Msg("reference embedding failed, cosine degrades to 0")
			referenceVector = nil
		}

		for modelID, completion := range event.Responses {
			if !completion.Scorable() {
				e.logger.Debug().
					Str("model_id", modelID).
					Str("session_id", event.SessionID).
					Msg("skipping unscorable completion")
				continue
			}
			scores[modelID] = e.score(ctx, modelID, reference, referenceTokens, referenceVector, completion)
		}
	}

	result := models.AgentResult{
		SessionID: event.SessionID,
		ThreadID:  event.ThreadID,
		Agent:     models.AgentEvaluator,
		UseCase:   event.UseCase,
		Results:   scores,
	}
	if _, err := e.results.UpsertAgentResult(ctx, result); err != nil {
		return fmt.Errorf("storing evaluator result: %w", err)
	}

	e.logger.Info().
		Str("session_id", event.SessionID).
		Int("scored", len(scores)).
		Msg("evaluator round stored")
	return nil
}

func (e *Evaluator) score(
	ctx context.Context,
	modelID string,
	reference string,
	referenceTokens []string,
	referenceVector []float32,
	completion models.ModelCompletion,
) models.ModelMetrics {
	candidate := strings.TrimSpace(completion.Text)
	candidateTokens := tokenize(candidate)

	cosine := 0.0
	if referenceVector != nil {
		candidateVector, err := e.embedder.Embed(ctx, candidate)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("model_id", modelID).
				Msg("candidate embedding failed, cosine degrades to 0")
		} else {
			cosine = cosineSimilarity(referenceVector, candidateVector)
		}
	}

	bleu := bleuScore(referenceTokens, candidateTokens)
	rouge1 := rouge1Score(referenceTokens, candidateTokens)
	rougeL := rougeLScore(referenceTokens, candidateTokens)
	combined := (bleu + rouge1 + rougeL + cosine) / 4.0

	responseTime := completion.Latency.Seconds()
	tokensPerSecond := 0.0
	if responseTime > 0 {
		tokensPerSecond = round2(float64(completion.Tokens.TotalTokens) / responseTime)
	}

	return models.ModelMetrics{
		ModelID:          modelID,
		BLEU:             round4(bleu),
		ROUGE1:           round4(rouge1),
		ROUGEL:           round4(rougeL),
		CosineSimilarity: round4(cosine),
		CombinedScore:    round4(combined),
		ResponseTime:     responseTime,
		Tokens:           completion.Tokens,
		TokensPerSecond:  tokensPerSecond,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
