package models

import (
	"strings"
	"time"
)

// AgentKind identifies one of the three downstream evaluation agents.
type AgentKind string

const (
	AgentEvaluator  AgentKind = "evaluator"
	AgentJudge      AgentKind = "judge"
	AgentReflection AgentKind = "reflection"
)

// AllAgentKinds is the closed set of downstream agents. The dispatcher
// publishes exactly one event per kind and the results API reports one
// slot per kind.
var AllAgentKinds = []AgentKind{AgentEvaluator, AgentJudge, AgentReflection}

func (k AgentKind) Valid() bool {
	switch k {
	case AgentEvaluator, AgentJudge, AgentReflection:
		return true
	}
	return false
}

// UseCase selects the evaluation mode.
type UseCase string

const (
	UseCaseZeroShot UseCase = "1"
	UseCaseContext  UseCase = "2"
)

// ErrorSentinelPrefix marks a completion whose gateway call failed. The
// completion stays in the round so downstream agents always see one entry
// per requested model.
const ErrorSentinelPrefix = "[ERROR]"

// TokenUsage holds per-completion token counts as reported by the gateway.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelCompletion is one model's answer to one prompt. Immutable after the
// planner creates it. A failed gateway call produces a completion whose
// Text carries the error sentinel and whose metrics are zeroed.
type ModelCompletion struct {
	ModelID string        `json:"model_id"`
	Text    string        `json:"content"`
	Latency time.Duration `json:"latency_ns"`
	Tokens  TokenUsage    `json:"tokens"`
	Safety  string        `json:"safety,omitempty"`
	Failed  bool          `json:"failed,omitempty"`
}

// NewErrorCompletion builds the sentinel completion for a failed model call.
func NewErrorCompletion(modelID string, err error) ModelCompletion {
	return ModelCompletion{
		ModelID: modelID,
		Text:    ErrorSentinelPrefix + " " + err.Error(),
		Failed:  true,
	}
}

// Scorable reports whether a completion should participate in downstream
// scoring. Error sentinels and empty completions are skipped but never
// removed from the round.
func (c ModelCompletion) Scorable() bool {
	text := strings.TrimSpace(c.Text)
	return !c.Failed && text != "" && !strings.HasPrefix(text, ErrorSentinelPrefix)
}

// EvaluationRound is the unit of work: one prompt fanned out to a set of
// models. Populated synchronously by the planner, serialized once into
// downstream events, never mutated afterwards.
type EvaluationRound struct {
	SessionID   string                     `json:"session_id"`
	ThreadID    string                     `json:"thread_id"`
	UseCase     UseCase                    `json:"use_case_id"`
	Prompt      string                     `json:"prompt"`
	Models      []string                   `json:"models"`
	Completions map[string]ModelCompletion `json:"completions"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// AgentEvent is the message published once per (round, agent kind).
// Delivery is at-least-once; consumers treat re-delivery as a no-op-safe
// upsert.
type AgentEvent struct {
	Agent     AgentKind                  `json:"agent"`
	SessionID string                     `json:"session_id"`
	ThreadID  string                     `json:"thread_id"`
	UseCase   UseCase                    `json:"use_case_id"`
	Prompt    string                     `json:"prompt"`
	Responses map[string]ModelCompletion `json:"responses"`
	Timestamp time.Time                  `json:"timestamp"`
}

// AgentResult is a downstream agent's assessment, keyed by
// (session_id, agent kind) with the thread id carried for filtering.
// Writing a second result for the same key replaces the prior value;
// the original creation timestamp is preserved.
type AgentResult struct {
	SessionID string    `json:"session_id"`
	ThreadID  string    `json:"thread_id"`
	Agent     AgentKind `json:"agent"`
	UseCase   UseCase   `json:"use_case_id,omitempty"`
	Results   any       `json:"results"`
	CreatedAt time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"last_updated"`
}

// ModelMetrics is the evaluator's per-model quantitative assessment.
type ModelMetrics struct {
	ModelID          string     `json:"model_id"`
	BLEU             float64    `json:"BLEU"`
	ROUGE1           float64    `json:"ROUGE_1"`
	ROUGEL           float64    `json:"ROUGE_L"`
	CosineSimilarity float64    `json:"SemanticCosineSimilarity"`
	CombinedScore    float64    `json:"CombinedScore"`
	ResponseTime     float64    `json:"response_time_s"`
	Tokens           TokenUsage `json:"tokens"`
	TokensPerSecond  float64    `json:"tokens_per_second"`
}

// JudgeScores is one model's qualitative assessment: five 1-10 integer
// dimensions plus a free-text reason per dimension.
type JudgeScores struct {
	Personalization int               `json:"personalization"`
	Relevance       int               `json:"relevance"`
	Fluency         int               `json:"fluency"`
	Coherence       int               `json:"coherence"`
	Creativity      int               `json:"creativity"`
	Reasons         map[string]string `json:"reasons"`
}

// ConversationMessage is one turn in the append-only per-(model, thread) log.
type ConversationMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	TokenCount int    `json:"token_count"`
}

// ConversationThread is the stored document for one (model, thread) pair.
type ConversationThread struct {
	ModelID  string                `json:"model_id"`
	ThreadID string                `json:"thread_id"`
	Created  int64                 `json:"created"`
	Messages []ConversationMessage `json:"messages"`
	Metadata ThreadMetadata        `json:"metadata"`
}

// ThreadMetadata tracks token accounting for one conversation document.
type ThreadMetadata struct {
	TokenCount       int   `json:"token_count"`
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	LastUpdated      int64 `json:"last_updated"`
}

// MemoryRecord is one embedded conversation message in the semantic memory
// index, scoped to the model-memory-{model_id} collection.
type MemoryRecord struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	ModelID    string  `json:"model_id"`
	ThreadID   string  `json:"thread_id"`
	Role       string  `json:"role"`
	Timestamp  int64   `json:"timestamp"`
	Similarity float64 `json:"similarity"`
}

// ReflectionAudit is the durable record a reflection run leaves behind,
// independent of the AgentResult upsert.
type ReflectionAudit struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	ThreadID      string         `json:"thread_id"`
	ModelID       string         `json:"model_id"`
	Prompt        string         `json:"prompt"`
	Context       string         `json:"reflection_result"`
	RelevantItems []MemoryRecord `json:"relevant_items"`
	Timestamp     int64          `json:"timestamp"`
}
