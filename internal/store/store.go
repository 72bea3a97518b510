// Package store persists evaluation state: per-agent results, conversation
// threads, reflection audit records, and session metadata. Consumers write
// through idempotent upserts so at-least-once event delivery is safe.
package store

import (
	"context"
	"errors"
	"regexp"

	"github.com/modelarena/arena/internal/models"
)

// ErrNotFound is returned by point reads when no record matches. Absence is
// a valid, non-error outcome for callers polling for results; they translate
// it to null rather than failing.
var ErrNotFound = errors.New("record not found")

// AppendStatus reports what a conversation append actually did.
type AppendStatus string

const (
	AppendCreated          AppendStatus = "created"
	AppendUpdated          AppendStatus = "updated"
	AppendDuplicateSkipped AppendStatus = "duplicate_skipped"
)

// AggregationStore is the idempotent document store for agent results,
// keyed by (session_id, agent kind).
type AggregationStore interface {
	// UpsertAgentResult replaces the record under (SessionID, Agent),
	// preserving the original creation timestamp when one exists.
	UpsertAgentResult(ctx context.Context, result models.AgentResult) (models.AgentResult, error)

	// GetAgentResult returns the record for (sessionID, agent), additionally
	// filtered by threadID when non-empty. Returns ErrNotFound on absence.
	GetAgentResult(ctx context.Context, sessionID string, agent models.AgentKind, threadID string) (*models.AgentResult, error)

	// GetAllAgentResults returns one entry per agent kind; kinds that have
	// not written yet map to nil so a partially-completed round is always a
	// well-formed response.
	GetAllAgentResults(ctx context.Context, sessionID string, threadID string) (map[models.AgentKind]*models.AgentResult, error)
}

// ConversationStore is the append-only per-(model, thread) message log.
type ConversationStore interface {
	// AppendMessage appends one turn. An assistant turn byte-identical to
	// the immediately preceding assistant turn in the same thread is skipped.
	AppendMessage(ctx context.Context, modelID, threadID, role, content string, tokenCount int) (AppendStatus, error)

	// GetThread returns the stored conversation document, or ErrNotFound.
	GetThread(ctx context.Context, modelID, threadID string) (*models.ConversationThread, error)
}

// ReflectionAuditStore persists reflection provenance records.
type ReflectionAuditStore interface {
	SaveReflectionAudit(ctx context.Context, audit models.ReflectionAudit) error
}

// SessionStore persists session metadata captured at compare time.
type SessionStore interface {
	SaveSessionMetadata(ctx context.Context, sessionID string, metadata map[string]any) error
}

// Store is the full persistence surface a worker needs.
type Store interface {
	AggregationStore
	ConversationStore
	ReflectionAuditStore
	SessionStore
}

var idSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeID replaces characters that are illegal in document ids.
func SanitizeID(raw string) string {
	return idSanitizer.ReplaceAllString(raw, "-")
}
