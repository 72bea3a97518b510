package llm

import (
	"context"
)

// Gateway invokes a model backend for one completion. A call either fully
// succeeds or fails with an error; it never partially succeeds.
// Implementations exist for Bedrock and OpenAI, plus a registry that routes
// by model identifier. The interface allows mocking in tests without making
// real API calls.
type Gateway interface {
	Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error)
	CompleteWithRetry(ctx context.Context, request CompletionRequest) (*CompletionResponse, error)
}
