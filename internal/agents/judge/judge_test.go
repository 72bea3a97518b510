package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelarena/arena/internal/llm"
	llmmocks "github.com/modelarena/arena/internal/llm/mocks"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	storemocks "github.com/modelarena/arena/internal/store/mocks"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func testEvent() models.AgentEvent {
	return models.AgentEvent{
		Agent:     models.AgentJudge,
		SessionID: "s1",
		ThreadID:  "t1",
		Prompt:    "write a haiku",
		Responses: map[string]models.ModelCompletion{
			"gpt4":   {ModelID: "gpt4", Text: "an old silent pond"},
			"claude": {ModelID: "claude", Text: "a frog jumps in"},
			"broken": models.NewErrorCompletion("broken", errors.New("timeout")),
		},
	}
}

func TestHandle_ParsesFencedResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	response := "```json\n" + `{
  "gpt4": {
    "personalization": 6, "relevance": 9, "fluency": 8, "coherence": 8, "creativity": 7,
    "reasons": {"relevance": "on topic"}
  },
  "claude": {
    "personalization": 5, "relevance": 8, "fluency": 9, "coherence": 8, "creativity": 9,
    "reasons": {}
  }
}` + "\n```"

	var captured llm.CompletionRequest
	gateway := llmmocks.NewMockGateway(ctrl)
	gateway.EXPECT().
		CompleteWithRetry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			captured = req
			return &llm.CompletionResponse{Text: response}, nil
		})

	results := store.NewMemoryStore()
	agent := NewJudge(gateway, results, "gpt-4o", newTestLogger())

	if err := agent.Handle(context.Background(), testEvent()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if captured.ModelID != "gpt-4o" {
		t.Errorf("expected judge model gpt-4o, got %s", captured.ModelID)
	}
	if !strings.Contains(captured.SystemPrompt, "expert evaluator") {
		t.Errorf("unexpected system prompt %q", captured.SystemPrompt)
	}
	if !strings.Contains(captured.Prompt, "Response from gpt4:") || !strings.Contains(captured.Prompt, "Response from claude:") {
		t.Error("user prompt should include every scorable response")
	}
	if strings.Contains(captured.Prompt, "Response from broken:") {
		t.Error("sentinel completions must not be sent to the judge")
	}

	stored, err := results.GetAgentResult(context.Background(), "s1", models.AgentJudge, "t1")
	if err != nil {
		t.Fatalf("result not stored: %v", err)
	}
	scores := stored.Results.(map[string]models.JudgeScores)
	if len(scores) != 2 {
		t.Fatalf("expected 2 scored models, got %d", len(scores))
	}
	if scores["gpt4"].Relevance != 9 {
		t.Errorf("expected relevance 9, got %d", scores["gpt4"].Relevance)
	}
	if scores["gpt4"].Reasons["relevance"] != "on topic" {
		t.Errorf("reasons not preserved: %+v", scores["gpt4"].Reasons)
	}
}

func TestHandle_IgnoresModelsOutsideRound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := llmmocks.NewMockGateway(ctrl)
	gateway.EXPECT().
		CompleteWithRetry(gomock.Any(), gomock.Any()).
		Return(&llm.CompletionResponse{Text: `{
  "gpt4": {"personalization": 5, "relevance": 5, "fluency": 5, "coherence": 5, "creativity": 5, "reasons": {}},
  "hallucinated-model": {"personalization": 9, "relevance": 9, "fluency": 9, "coherence": 9, "creativity": 9, "reasons": {}}
}`}, nil)

	results := store.NewMemoryStore()
	agent := NewJudge(gateway, results, "gpt-4o", newTestLogger())

	if err := agent.Handle(context.Background(), testEvent()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	stored, _ := results.GetAgentResult(context.Background(), "s1", models.AgentJudge, "")
	scores := stored.Results.(map[string]models.JudgeScores)
	if _, present := scores["hallucinated-model"]; present {
		t.Error("models outside the round must be dropped")
	}
	if _, present := scores["gpt4"]; !present {
		t.Error("in-round model missing from scores")
	}
}

func TestHandle_GatewayFailureStoresEmptyScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := llmmocks.NewMockGateway(ctrl)
	gateway.EXPECT().
		CompleteWithRetry(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("all retries exhausted"))

	var stored models.AgentResult
	results := storemocks.NewMockAggregationStore(ctrl)
	results.EXPECT().
		UpsertAgentResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, result models.AgentResult) (models.AgentResult, error) {
			stored = result
			return result, nil
		})

	agent := NewJudge(gateway, results, "gpt-4o", newTestLogger())
	if err := agent.Handle(context.Background(), testEvent()); err != nil {
		t.Fatalf("gateway failure must not surface as an error: %v", err)
	}

	scores := stored.Results.(map[string]models.JudgeScores)
	if len(scores) != 0 {
		t.Errorf("expected empty scores, got %d", len(scores))
	}
}

func TestHandle_NoScorableCompletionsSkipsLLM(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No CompleteWithRetry expectation: any call to the gateway fails the test.
	gateway := llmmocks.NewMockGateway(ctrl)

	var stored models.AgentResult
	results := storemocks.NewMockAggregationStore(ctrl)
	results.EXPECT().
		UpsertAgentResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, result models.AgentResult) (models.AgentResult, error) {
			stored = result
			return result, nil
		})

	agent := NewJudge(gateway, results, "gpt-4o", newTestLogger())

	event := models.AgentEvent{
		SessionID: "s1",
		Responses: map[string]models.ModelCompletion{
			"broken": models.NewErrorCompletion("broken", errors.New("boom")),
		},
	}
	if err := agent.Handle(context.Background(), event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if scores := stored.Results.(map[string]models.JudgeScores); len(scores) != 0 {
		t.Errorf("expected empty scores, got %+v", scores)
	}
}

func TestHandle_StoreFailureSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := llmmocks.NewMockGateway(ctrl)
	gateway.EXPECT().
		CompleteWithRetry(gomock.Any(), gomock.Any()).
		Return(&llm.CompletionResponse{Text: `{"gpt4": {"relevance": 7, "reasons": {}}}`}, nil)

	results := storemocks.NewMockAggregationStore(ctrl)
	results.EXPECT().
		UpsertAgentResult(gomock.Any(), gomock.Any()).
		Return(models.AgentResult{}, errors.New("redis down"))

	agent := NewJudge(gateway, results, "gpt-4o", newTestLogger())
	if err := agent.Handle(context.Background(), testEvent()); err == nil {
		t.Fatal("a failed upsert must surface so the event stays pending")
	}
}
