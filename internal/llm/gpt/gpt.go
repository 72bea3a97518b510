package gpt

import (
	"context"
	"fmt"
	"time"

	"github.com/modelarena/arena/internal/llm"
	"github.com/openai/openai-go"
)

func (c *Client) Complete(ctx context.Context, request llm.CompletionRequest) (*llm.CompletionResponse, error) {
	deployment := request.Deployment
	if deployment == "" {
		deployment = request.ModelID
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if request.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(request.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(request.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(deployment),
	}

	start := time.Now()
	output, err := c.Client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke gpt model. Error: %w", err)
	}

	if len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := output.Choices[0]
	return &llm.CompletionResponse{
		Text:             choice.Message.Content,
		PromptTokens:     int(output.Usage.PromptTokens),
		CompletionTokens: int(output.Usage.CompletionTokens),
		Latency:          latency,
		StopReason:       fmt.Sprint(choice.FinishReason),
	}, nil
}

// CompleteWithRetry relies on the SDK's built-in retry policy (WithMaxRetries).
func (c *Client) CompleteWithRetry(ctx context.Context, request llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.Complete(ctx, request)
}
