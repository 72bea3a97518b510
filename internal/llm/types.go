package llm

import "time"

type CompletionRequest struct {
	// ModelID is the caller-facing identifier, Deployment the provider-side
	// name it resolves to. Deployment defaults to ModelID.
	ModelID      string
	Deployment   string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

type CompletionResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
	StopReason       string
	Safety           string
}
