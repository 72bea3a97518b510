package store

import (
	"context"
	"sync"
	"time"

	"github.com/modelarena/arena/internal/models"
)

// MemoryStore is an in-process Store used by tests and the producer CLI's
// dry-run mode. It mirrors RedisStore semantics exactly.
type MemoryStore struct {
	mu          sync.Mutex
	results     map[string]models.AgentResult
	threads     map[string]*models.ConversationThread
	reflections map[string]models.ReflectionAudit
	sessions    map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:     make(map[string]models.AgentResult),
		threads:     make(map[string]*models.ConversationThread),
		reflections: make(map[string]models.ReflectionAudit),
		sessions:    make(map[string]map[string]any),
	}
}

func (s *MemoryStore) UpsertAgentResult(_ context.Context, result models.AgentResult) (models.AgentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := resultKey(result.SessionID, result.Agent)
	now := time.Now().UTC()
	result.UpdatedAt = now
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}

	if prior, ok := s.results[key]; ok {
		result.CreatedAt = prior.CreatedAt
	}

	s.results[key] = result
	return result, nil
}

func (s *MemoryStore) GetAgentResult(_ context.Context, sessionID string, agent models.AgentKind, threadID string) (*models.AgentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.results[resultKey(sessionID, agent)]
	if !ok {
		return nil, ErrNotFound
	}
	if threadID != "" && result.ThreadID != threadID {
		return nil, ErrNotFound
	}

	copied := result
	return &copied, nil
}

func (s *MemoryStore) GetAllAgentResults(ctx context.Context, sessionID string, threadID string) (map[models.AgentKind]*models.AgentResult, error) {
	results := make(map[models.AgentKind]*models.AgentResult, len(models.AllAgentKinds))
	for _, agent := range models.AllAgentKinds {
		result, err := s.GetAgentResult(ctx, sessionID, agent, threadID)
		if err != nil {
			results[agent] = nil
			continue
		}
		results[agent] = result
	}
	return results, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, modelID, threadID, role, content string, tokenCount int) (AppendStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := threadKey(modelID, threadID)
	now := time.Now().Unix()
	status := AppendUpdated

	thread, ok := s.threads[key]
	if !ok {
		thread = &models.ConversationThread{
			ModelID:  modelID,
			ThreadID: threadID,
			Created:  now,
		}
		s.threads[key] = thread
		status = AppendCreated
	}

	if role == "assistant" && len(thread.Messages) > 0 {
		last := thread.Messages[len(thread.Messages)-1]
		if last.Role == "assistant" && last.Content == content {
			return AppendDuplicateSkipped, nil
		}
	}

	thread.Messages = append(thread.Messages, models.ConversationMessage{
		Role:       role,
		Content:    content,
		Timestamp:  now,
		TokenCount: tokenCount,
	})
	thread.Metadata.TokenCount += tokenCount
	thread.Metadata.LastUpdated = now
	if role == "user" {
		thread.Metadata.PromptTokens += tokenCount
	} else {
		thread.Metadata.CompletionTokens += tokenCount
	}

	return status, nil
}

func (s *MemoryStore) GetThread(_ context.Context, modelID, threadID string) (*models.ConversationThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadKey(modelID, threadID)]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *thread
	copied.Messages = append([]models.ConversationMessage(nil), thread.Messages...)
	return &copied, nil
}

func (s *MemoryStore) SaveReflectionAudit(_ context.Context, audit models.ReflectionAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflections[audit.ID] = audit
	return nil
}

// ReflectionAudits returns saved audits for assertions in tests.
func (s *MemoryStore) ReflectionAudits() []models.ReflectionAudit {
	s.mu.Lock()
	defer s.mu.Unlock()

	audits := make([]models.ReflectionAudit, 0, len(s.reflections))
	for _, audit := range s.reflections {
		audits = append(audits, audit)
	}
	return audits
}

func (s *MemoryStore) SaveSessionMetadata(_ context.Context, sessionID string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = metadata
	return nil
}
