// Package judge performs the qualitative assessment of one round: a single
// LLM call covering every model, scored on five 1-10 dimensions with brief
// reasons, recovered from imperfect output by the structured result parser.
package judge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelarena/arena/internal/llm"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/parser"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

const (
	systemPrompt = "You are an expert evaluator of LLM outputs. Respond ONLY with structured JSON."

	judgeTemperature = 0.3
	judgeMaxTokens   = 1000
)

type Judge struct {
	gateway    llm.Gateway
	results    store.AggregationStore
	judgeModel string
	logger     *zerolog.Logger
}

func NewJudge(gateway llm.Gateway, results store.AggregationStore, judgeModel string, logger *zerolog.Logger) *Judge {
	return &Judge{
		gateway:    gateway,
		results:    results,
		judgeModel: judgeModel,
		logger:     logger,
	}
}

// Handle asks the judge model to rate every scorable completion and upserts
// the parsed scores. A failed call or unparseable response yields an empty
// score map, never an error: the round's other agents are unaffected.
func (j *Judge) Handle(ctx context.Context, event models.AgentEvent) error {
	scores := j.evaluate(ctx, event)

	result := models.AgentResult{
		SessionID: event.SessionID,
		ThreadID:  event.ThreadID,
		Agent:     models.AgentJudge,
		UseCase:   event.UseCase,
		Results:   scores,
	}
	if _, err := j.results.UpsertAgentResult(ctx, result); err != nil {
		return fmt.Errorf("storing judge result: %w", err)
	}

	j.logger.Info().
		Str("session_id", event.SessionID).
		Int("scored", len(scores)).
		Msg("judge round stored")
	return nil
}

func (j *Judge) evaluate(ctx context.Context, event models.AgentEvent) map[string]models.JudgeScores {
	scorable := make(map[string]models.ModelCompletion)
	for modelID, completion := range event.Responses {
		if completion.Scorable() {
			scorable[modelID] = completion
		}
	}
	if len(scorable) == 0 {
		return map[string]models.JudgeScores{}
	}

	response, err := j.gateway.CompleteWithRetry(ctx, llm.CompletionRequest{
		ModelID:      j.judgeModel,
		Prompt:       buildUserPrompt(event.Prompt, scorable),
		SystemPrompt: systemPrompt,
		Temperature:  judgeTemperature,
		MaxTokens:    judgeMaxTokens,
	})
	if err != nil {
		j.logger.Error().
			Err(err).
			Str("session_id", event.SessionID).
			Str("judge_model", j.judgeModel).
			Msg("judge call failed, storing empty scores")
		return map[string]models.JudgeScores{}
	}

	parsed := parser.ParseJudgeScores(response.Text)

	// The judge sometimes rates models it was never asked about; keep only
	// entries for models actually in the round.
	scores := make(map[string]models.JudgeScores, len(parsed))
	for modelID, entry := range parsed {
		if _, inRound := scorable[modelID]; inRound {
			scores[modelID] = entry
		}
	}
	return scores
}

func buildUserPrompt(prompt string, completions map[string]models.ModelCompletion) string {
	modelIDs := make([]string, 0, len(completions))
	for modelID := range completions {
		modelIDs = append(modelIDs, modelID)
	}
	sort.Strings(modelIDs)

	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate the following responses to the prompt:\n\nPrompt:\n%s\n\n", prompt)
	for _, modelID := range modelIDs {
		fmt.Fprintf(&b, "Response from %s:\n%s\n\n", modelID, strings.TrimSpace(completions[modelID].Text))
	}
	b.WriteString(
		"Provide explicit JSON ratings for each response with numerical scores (1-10) and brief reasons:\n" +
			"{\n" +
			"  \"model_id\": {\n" +
			"    \"personalization\": score,\n" +
			"    \"relevance\": score,\n" +
			"    \"fluency\": score,\n" +
			"    \"coherence\": score,\n" +
			"    \"creativity\": score,\n" +
			"    \"reasons\": {\n" +
			"      \"personalization\": \"reason\",\n" +
			"      \"relevance\": \"reason\",\n" +
			"      \"fluency\": \"reason\",\n" +
			"      \"coherence\": \"reason\",\n" +
			"      \"creativity\": \"reason\"\n" +
			"    }\n" +
			"  },\n" +
			"  ...\n" +
			"}")
	return b.String()
}
