package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelarena/arena/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	resultKeyPrefix     = "arena:results:"
	threadKeyPrefix     = "arena:threads:"
	reflectionKeyPrefix = "arena:reflections:"
	sessionKeyPrefix    = "arena:sessions:"

	// txRetries bounds optimistic retries of a read-modify-write when a
	// concurrent writer touches the same document.
	txRetries = 5
)

// RedisStore implements Store on a Redis backend. Agent results and thread
// documents are stored as JSON values under composed keys; the partition
// component (session id / model id) leads the key.
type RedisStore struct {
	client *redis.Client
	logger *zerolog.Logger
}

func NewRedisStore(client *redis.Client, logger *zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func resultKey(sessionID string, agent models.AgentKind) string {
	return resultKeyPrefix + SanitizeID(sessionID) + ":" + string(agent)
}

func threadKey(modelID, threadID string) string {
	return threadKeyPrefix + SanitizeID(modelID) + ":" + SanitizeID(threadID)
}

// UpsertAgentResult replaces the record under (session, agent), carrying the
// original creation timestamp forward. The read-modify-write runs under a
// WATCH/MULTI optimistic transaction so a redelivered event interleaving with
// the first write retries instead of resetting CreatedAt.
func (s *RedisStore) UpsertAgentResult(ctx context.Context, result models.AgentResult) (models.AgentResult, error) {
	key := resultKey(result.SessionID, result.Agent)

	txn := func(tx *redis.Tx) error {
		now := time.Now().UTC()
		result.UpdatedAt = now
		if result.CreatedAt.IsZero() {
			result.CreatedAt = now
		}

		existing, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// first write for this (session, agent)
		case err != nil:
			return fmt.Errorf("reading prior agent result: %w", err)
		default:
			var prior models.AgentResult
			if err := json.Unmarshal(existing, &prior); err == nil && !prior.CreatedAt.IsZero() {
				result.CreatedAt = prior.CreatedAt
			}
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("serializing agent result: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			s.logger.Info().
				Str("session_id", result.SessionID).
				Str("agent", string(result.Agent)).
				Msg("agent result upserted")
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.AgentResult{}, err
	}

	return models.AgentResult{}, fmt.Errorf("upserting agent result %s: transaction contention after %d attempts", key, txRetries)
}

func (s *RedisStore) GetAgentResult(ctx context.Context, sessionID string, agent models.AgentKind, threadID string) (*models.AgentResult, error) {
	payload, err := s.client.Get(ctx, resultKey(sessionID, agent)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading agent result: %w", err)
	}

	var result models.AgentResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding agent result: %w", err)
	}

	if threadID != "" && result.ThreadID != threadID {
		return nil, ErrNotFound
	}

	return &result, nil
}

func (s *RedisStore) GetAllAgentResults(ctx context.Context, sessionID string, threadID string) (map[models.AgentKind]*models.AgentResult, error) {
	results := make(map[models.AgentKind]*models.AgentResult, len(models.AllAgentKinds))

	for _, agent := range models.AllAgentKinds {
		result, err := s.GetAgentResult(ctx, sessionID, agent, threadID)
		if errors.Is(err, ErrNotFound) {
			results[agent] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		results[agent] = result
	}

	return results, nil
}

// AppendMessage runs a WATCH/MULTI optimistic transaction around the
// read-modify-write so concurrent writers to the same (model, thread) retry
// instead of racing past the duplicate check.
func (s *RedisStore) AppendMessage(ctx context.Context, modelID, threadID, role, content string, tokenCount int) (AppendStatus, error) {
	key := threadKey(modelID, threadID)
	var status AppendStatus

	txn := func(tx *redis.Tx) error {
		var thread models.ConversationThread
		now := time.Now().Unix()

		payload, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			thread = models.ConversationThread{
				ModelID:  modelID,
				ThreadID: threadID,
				Created:  now,
			}
			status = AppendCreated
		case err != nil:
			return fmt.Errorf("reading thread: %w", err)
		default:
			if err := json.Unmarshal(payload, &thread); err != nil {
				return fmt.Errorf("decoding thread: %w", err)
			}
			status = AppendUpdated
		}

		if role == "assistant" && len(thread.Messages) > 0 {
			last := thread.Messages[len(thread.Messages)-1]
			if last.Role == "assistant" && last.Content == content {
				status = AppendDuplicateSkipped
				return nil
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

		encoded, err := json.Marshal(thread)
		if err != nil {
			return fmt.Errorf("serializing thread: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return status, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return "", err
	}

	return "", fmt.Errorf("appending message to %s: transaction contention after %d attempts", key, txRetries)
}

func (s *RedisStore) GetThread(ctx context.Context, modelID, threadID string) (*models.ConversationThread, error) {
	payload, err := s.client.Get(ctx, threadKey(modelID, threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading thread: %w", err)
	}

	var thread models.ConversationThread
	if err := json.Unmarshal(payload, &thread); err != nil {
		return nil, fmt.Errorf("decoding thread: %w", err)
	}
	return &thread, nil
}

func (s *RedisStore) SaveReflectionAudit(ctx context.Context, audit models.ReflectionAudit) error {
	payload, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("serializing reflection audit: %w", err)
	}

	key := reflectionKeyPrefix + SanitizeID(audit.ID)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("writing reflection audit: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveSessionMetadata(ctx context.Context, sessionID string, metadata map[string]any) error {
	doc := map[string]any{
		"session_id":   sessionID,
		"metadata":     metadata,
		"last_updated": time.Now().Unix(),
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing session metadata: %w", err)
	}

	key := sessionKeyPrefix + SanitizeID(sessionID)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("writing session metadata: %w", err)
	}
	return nil
}
