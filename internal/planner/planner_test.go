package planner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelarena/arena/internal/llm"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

type fakeGateway struct {
	mu        sync.Mutex
	responses map[string]*llm.CompletionResponse
	errs      map[string]error
	calls     []string
}

func (g *fakeGateway) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.ModelID)
	g.mu.Unlock()

	if err, ok := g.errs[req.ModelID]; ok {
		return nil, err
	}
	if resp, ok := g.responses[req.ModelID]; ok {
		return resp, nil
	}
	return &llm.CompletionResponse{Text: "default"}, nil
}

func (g *fakeGateway) CompleteWithRetry(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return g.Complete(ctx, req)
}

type fakeIndex struct {
	mu    sync.Mutex
	saved []models.MemoryRecord
	err   error
}

func (i *fakeIndex) SaveMessage(_ context.Context, record models.MemoryRecord) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return i.err
	}
	i.saved = append(i.saved, record)
	return nil
}

func (i *fakeIndex) Search(context.Context, string, string, int, string) ([]models.MemoryRecord, error) {
	return nil, nil
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestRun_OneCompletionPerModel(t *testing.T) {
	gateway := &fakeGateway{
		responses: map[string]*llm.CompletionResponse{
			"gpt4":   {Text: "answer from gpt4", PromptTokens: 3, CompletionTokens: 5, Latency: 20 * time.Millisecond},
			"claude": {Text: "answer from claude", PromptTokens: 3, CompletionTokens: 7},
		},
		errs: map[string]error{
			"broken-model": errors.New("gateway timeout"),
		},
	}
	conversations := store.NewMemoryStore()
	index := &fakeIndex{}
	planner := NewPlanner(gateway, conversations, index, time.Second, 0.7, 512, newTestLogger())

	round, err := planner.Run(context.Background(), Request{
		SessionID: "s1",
		ThreadID:  "t1",
		UseCase:   models.UseCaseZeroShot,
		Prompt:    "compare these",
		Models:    []string{"gpt4", "claude", "broken-model"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(round.Completions) != 3 {
		t.Fatalf("expected 3 completions, got %d", len(round.Completions))
	}

	sentinel := round.Completions["broken-model"]
	if !sentinel.Failed {
		t.Errorf("failed model should be marked failed")
	}
	if !strings.HasPrefix(sentinel.Text, models.ErrorSentinelPrefix) {
		t.Errorf("expected sentinel text, got %q", sentinel.Text)
	}
	if sentinel.Scorable() {
		t.Errorf("sentinel completion must not be scorable")
	}

	success := round.Completions["gpt4"]
	if success.Text != "answer from gpt4" {
		t.Errorf("unexpected text %q", success.Text)
	}
	if success.Tokens.TotalTokens != 8 {
		t.Errorf("expected total tokens 8, got %d", success.Tokens.TotalTokens)
	}
}

func TestRun_RecordsConversationAndMemory(t *testing.T) {
	gateway := &fakeGateway{
		responses: map[string]*llm.CompletionResponse{
			"gpt4": {Text: "hello there", PromptTokens: 2, CompletionTokens: 4},
		},
	}
	conversations := store.NewMemoryStore()
	index := &fakeIndex{}
	planner := NewPlanner(gateway, conversations, index, time.Second, 0.7, 512, newTestLogger())

	if _, err := planner.Run(context.Background(), Request{
		SessionID: "s1",
		ThreadID:  "t1",
		Prompt:    "say hello",
		Models:    []string{"gpt4"},
	}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	thread, err := conversations.GetThread(context.Background(), "gpt4", "t1")
	if err != nil {
		t.Fatalf("thread not written: %v", err)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Role != "assistant" {
		t.Fatalf("expected one assistant turn, got %+v", thread.Messages)
	}
	if thread.Messages[0].TokenCount != 6 {
		t.Errorf("expected token count 6, got %d", thread.Messages[0].TokenCount)
	}

	if len(index.saved) != 1 {
		t.Fatalf("expected one memory record, got %d", len(index.saved))
	}
	if index.saved[0].ModelID != "gpt4" || index.saved[0].Text != "hello there" {
		t.Errorf("unexpected memory record %+v", index.saved[0])
	}
}

func TestRun_FailedModelSkipsConversationLog(t *testing.T) {
	gateway := &fakeGateway{
		errs: map[string]error{"gpt4": errors.New("boom")},
	}
	conversations := store.NewMemoryStore()
	planner := NewPlanner(gateway, conversations, nil, time.Second, 0.7, 512, newTestLogger())

	round, err := planner.Run(context.Background(), Request{
		SessionID: "s1",
		ThreadID:  "t1",
		Prompt:    "say hello",
		Models:    []string{"gpt4"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(round.Completions) != 1 {
		t.Fatalf("round must still carry the failed model")
	}

	if _, err := conversations.GetThread(context.Background(), "gpt4", "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("failed completion must not be logged, got %v", err)
	}
}

func TestRun_NoModels(t *testing.T) {
	planner := NewPlanner(&fakeGateway{}, store.NewMemoryStore(), nil, time.Second, 0.7, 512, newTestLogger())
	if _, err := planner.Run(context.Background(), Request{SessionID: "s1"}); err == nil {
		t.Fatal("expected error for empty model list")
	}
}
