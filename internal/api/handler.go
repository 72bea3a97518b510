package api

import (
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/modelarena/arena/internal/api/middleware"
	"github.com/modelarena/arena/internal/models"
	"github.com/modelarena/arena/internal/orchestrator"
	"github.com/modelarena/arena/internal/store"
	"github.com/rs/zerolog"
)

// CompareRequest is the POST /compare body.
type CompareRequest struct {
	SessionID    string   `json:"session_id"`
	ThreadID     string   `json:"thread_id,omitempty"`
	UseCaseID    string   `json:"use_case_id,omitempty"`
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Models       []string `json:"models"`
}

// ResultsResponse is the GET /results/{session_id} body: one slot per agent
// kind, null until that agent's consumer has stored something.
type ResultsResponse struct {
	SessionID string                                   `json:"session_id"`
	Results   map[models.AgentKind]*models.AgentResult `json:"results"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	results      store.AggregationStore
	logger       *zerolog.Logger
}

func NewHandler(o *orchestrator.Orchestrator, results store.AggregationStore, logger *zerolog.Logger) *Handler {
	return &Handler{
		orchestrator: o,
		results:      results,
		logger:       logger,
	}
}

// POST /api/v1/compare
func (h *Handler) Compare(req *restful.Request, resp *restful.Response) {
	var compareRequest CompareRequest
	if err := req.ReadEntity(&compareRequest); err != nil {
		h.logger.Error().Err(err).Msg("failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	if compareRequest.SessionID == "" {
		middleware.HandleError(resp, errors.New("session_id is required"), http.StatusBadRequest)
		return
	}
	if compareRequest.Prompt == "" {
		middleware.HandleError(resp, errors.New("prompt is required"), http.StatusBadRequest)
		return
	}
	if len(compareRequest.Models) == 0 {
		middleware.HandleError(resp, errors.New("models is required"), http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("session_id", compareRequest.SessionID).
		Int("models", len(compareRequest.Models)).
		Msg("starting compare round")

	ctx := req.Request.Context()
	response, err := h.orchestrator.Execute(ctx, orchestrator.Request{
		SessionID:    compareRequest.SessionID,
		ThreadID:     compareRequest.ThreadID,
		UseCase:      models.UseCase(compareRequest.UseCaseID),
		Prompt:       compareRequest.Prompt,
		SystemPrompt: compareRequest.SystemPrompt,
		Models:       compareRequest.Models,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", compareRequest.SessionID).Msg("compare round failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, response)
}

// GET /api/v1/results/{session_id}
func (h *Handler) GetResults(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")
	threadID := req.QueryParameter("thread_id")

	results, err := h.results.GetAllAgentResults(req.Request.Context(), sessionID, threadID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to read results")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, ResultsResponse{
		SessionID: sessionID,
		Results:   results,
	})
}

// GET /api/v1/results/{session_id}/{agent}
func (h *Handler) GetAgentResult(req *restful.Request, resp *restful.Response) {
	sessionID := req.PathParameter("session_id")
	agent := models.AgentKind(req.PathParameter("agent"))
	threadID := req.QueryParameter("thread_id")

	if !agent.Valid() {
		middleware.HandleError(resp, errors.New("unknown agent kind: "+string(agent)), http.StatusBadRequest)
		return
	}

	result, err := h.results.GetAgentResult(req.Request.Context(), sessionID, agent, threadID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.HandleError(resp, errors.New("no result for session "+sessionID), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to read agent result")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}
