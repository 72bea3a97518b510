// Package mcpadapter exposes the compare workflow and the results store as
// MCP tools.
package mcpadapter

import (
	"context"

	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/orchestrator"
	"github.com/modelarena/arena/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CompareInput is the MCP tool input schema (matches HTTP API field names).
type CompareInput struct {
	SessionID    string   `json:"session_id" jsonschema:"session identifier the round belongs to"`
	ThreadID     string   `json:"thread_id,omitempty" jsonschema:"optional conversation thread id, generated when omitted"`
	UseCaseID    string   `json:"use_case_id,omitempty" jsonschema:"evaluation mode: 1 zero-shot, 2 context-grounded"`
	Prompt       string   `json:"prompt" jsonschema:"prompt to send to every model"`
	SystemPrompt string   `json:"system_prompt,omitempty" jsonschema:"optional system prompt"`
	Models       []string `json:"models" jsonschema:"model ids to fan the prompt out to"`
}

// GetResultsInput is the MCP tool input schema for reading agent results.
type GetResultsInput struct {
	SessionID string `json:"session_id" jsonschema:"session identifier"`
	ThreadID  string `json:"thread_id,omitempty" jsonschema:"optional thread filter"`
}

// ResultsOutput carries one slot per agent kind; a slot stays null until
// that agent's consumer has stored a result.
type ResultsOutput struct {
	SessionID string                                   `json:"session_id"`
	Results   map[models.AgentKind]*models.AgentResult `json:"results"`
}

// NewCompareHandler returns a tool handler that runs one comparison round.
// Pass the returned function to mcp.AddTool.
func NewCompareHandler(o *orchestrator.Orchestrator) func(context.Context, *mcp.CallToolRequest, CompareInput) (*mcp.CallToolResult, *orchestrator.Response, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CompareInput) (*mcp.CallToolResult, *orchestrator.Response, error) {
		response, err := o.Execute(ctx, orchestrator.Request{
			SessionID:    input.SessionID,
			ThreadID:     input.ThreadID,
			UseCase:      models.UseCase(input.UseCaseID),
			Prompt:       input.Prompt,
			SystemPrompt: input.SystemPrompt,
			Models:       input.Models,
		})
		return nil, response, err
	}
}

// NewGetResultsHandler returns a tool handler that reads all agent results
// for a session. Pass the returned function to mcp.AddTool.
func NewGetResultsHandler(results store.AggregationStore) func(context.Context, *mcp.CallToolRequest, GetResultsInput) (*mcp.CallToolResult, ResultsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetResultsInput) (*mcp.CallToolResult, ResultsOutput, error) {
		all, err := results.GetAllAgentResults(ctx, input.SessionID, input.ThreadID)
		if err != nil {
			return nil, ResultsOutput{}, err
		}
		return nil, ResultsOutput{SessionID: input.SessionID, Results: all}, nil
	}
}
