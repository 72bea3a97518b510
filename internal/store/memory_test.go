package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/modelarena/arena/internal/models"
)

func TestUpsertAgentResult_Idempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.UpsertAgentResult(ctx, models.AgentResult{
		SessionID: "s1",
		ThreadID:  "t1",
		Agent:     models.AgentEvaluator,
		Results:   map[string]string{"gpt4": "first"},
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	second, err := s.UpsertAgentResult(ctx, models.AgentResult{
		SessionID: "s1",
		ThreadID:  "t1",
		Agent:     models.AgentEvaluator,
		Results:   map[string]string{"gpt4": "second"},
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	// Second payload wins, first creation time survives.
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("creation time not preserved: first=%v second=%v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("expected updated timestamp to advance")
	}

	stored, err := s.GetAgentResult(ctx, "s1", models.AgentEvaluator, "")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	payload, ok := stored.Results.(map[string]string)
	if !ok || payload["gpt4"] != "second" {
		t.Errorf("expected second payload, got %+v", stored.Results)
	}
}

func TestUpsertAgentResult_ConcurrentRedeliveriesPreserveCreatedAt(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.UpsertAgentResult(ctx, models.AgentResult{
		SessionID: "s1",
		Agent:     models.AgentJudge,
		Results:   map[string]string{"gpt4": "initial"},
	})
	if err != nil {
		t.Fatalf("seed upsert failed: %v", err)
	}

	// Redelivered events race against each other on the same key. Whatever
	// interleaving wins, the original creation timestamp must survive.
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.UpsertAgentResult(ctx, models.AgentResult{
				SessionID: "s1",
				Agent:     models.AgentJudge,
				Results:   map[string]string{"gpt4": "redelivered"},
			}); err != nil {
				t.Errorf("concurrent upsert failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := s.GetAgentResult(ctx, "s1", models.AgentJudge, "")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("creation time lost under redelivery: first=%v stored=%v", first.CreatedAt, stored.CreatedAt)
	}
	if stored.UpdatedAt.Before(first.UpdatedAt) {
		t.Error("updated timestamp regressed")
	}
}

func TestGetAgentResult_ThreadFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.UpsertAgentResult(ctx, models.AgentResult{
		SessionID: "s1",
		ThreadID:  "t1",
		Agent:     models.AgentJudge,
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if _, err := s.GetAgentResult(ctx, "s1", models.AgentJudge, "t1"); err != nil {
		t.Errorf("matching thread filter should succeed: %v", err)
	}

	if _, err := s.GetAgentResult(ctx, "s1", models.AgentJudge, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("mismatched thread filter should report not found, got %v", err)
	}
}

func TestGetAllAgentResults_MissingKindsAreNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	results, err := s.GetAllAgentResults(ctx, "s1", "")
	if err != nil {
		t.Fatalf("get_all failed: %v", err)
	}

	if len(results) != len(models.AllAgentKinds) {
		t.Fatalf("expected %d slots, got %d", len(models.AllAgentKinds), len(results))
	}
	for _, agent := range models.AllAgentKinds {
		slot, present := results[agent]
		if !present {
			t.Errorf("agent %s missing from response", agent)
		}
		if slot != nil {
			t.Errorf("agent %s should be nil before any consumer runs", agent)
		}
	}
}

func TestAppendMessage_DedupsTrailingAssistantTurn(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	status, err := s.AppendMessage(ctx, "gpt4", "t1", "assistant", "hello", 3)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if status != AppendCreated {
		t.Errorf("expected created, got %s", status)
	}

	status, err = s.AppendMessage(ctx, "gpt4", "t1", "assistant", "hello", 3)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if status != AppendDuplicateSkipped {
		t.Errorf("expected duplicate_skipped, got %s", status)
	}

	thread, err := s.GetThread(ctx, "gpt4", "t1")
	if err != nil {
		t.Fatalf("get thread failed: %v", err)
	}
	if len(thread.Messages) != 1 {
		t.Errorf("expected 1 message after dedup, got %d", len(thread.Messages))
	}

	// A different assistant turn, then the first content again: not a
	// trailing duplicate anymore, so it appends.
	if _, err := s.AppendMessage(ctx, "gpt4", "t1", "assistant", "different", 2); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	status, err = s.AppendMessage(ctx, "gpt4", "t1", "assistant", "hello", 3)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if status != AppendUpdated {
		t.Errorf("non-trailing repeat should append, got %s", status)
	}
}

func TestAppendMessage_TokenAccounting(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, "gpt4", "t1", "user", "question", 5); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := s.AppendMessage(ctx, "gpt4", "t1", "assistant", "answer", 7); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	thread, err := s.GetThread(ctx, "gpt4", "t1")
	if err != nil {
		t.Fatalf("get thread failed: %v", err)
	}
	if thread.Metadata.PromptTokens != 5 {
		t.Errorf("expected prompt tokens 5, got %d", thread.Metadata.PromptTokens)
	}
	if thread.Metadata.CompletionTokens != 7 {
		t.Errorf("expected completion tokens 7, got %d", thread.Metadata.CompletionTokens)
	}
	if thread.Metadata.TokenCount != 12 {
		t.Errorf("expected total tokens 12, got %d", thread.Metadata.TokenCount)
	}
}

func TestSanitizeID(t *testing.T) {
	got := SanitizeID("mcp:thread/abc 123")
	want := "mcp-thread-abc-123"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
