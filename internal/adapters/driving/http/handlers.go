package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	// Registers the OpenAPI document with swag
	_ "github.com/custodia-labs/sercha-kms/docs"
	"github.com/custodia-labs/sercha-kms/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports dependency health
// @Description Readiness with per-dependency status
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// TurnRequest records one conversation turn
// @Description Conversation turn to record
type TurnRequest struct {
	ChatType  domain.ChatType `json:"chat_type"`
	ContextID string          `json:"context_id,omitempty"`
	AgentID   *int64          `json:"agent_id,omitempty"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
}

// TurnsResponse lists conversation turns, oldest first
// @Description Conversation turns, oldest first
type TurnsResponse struct {
	Turns []*domain.ChatTurn `json:"turns"`
}

// SearchRequest is the body of every search endpoint.
// A present but empty specific_document_ids yields no results.
// @Description Search query and options
type SearchRequest struct {
	Query string `json:"query" example:"refund policy for annual plans"`
	domain.SearchOptions
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings PostgreSQL and, when configured, Redis. Embedding and LLM
// @Description  failures report "degraded" without failing readiness.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}
	check("postgres", s.db)
	check("redis", s.redisClient)

	optional := func(name string, p Pinger) {
		if p == nil {
			return
		}
		err := p.Ping(ctx)
		switch {
		case err == nil:
			resp.Checks[name] = "ok"
		case errors.Is(err, domain.ErrServiceUnavailable):
			resp.Checks[name] = "not configured"
		default:
			resp.Checks[name] = err.Error()
			if resp.Status == "ready" {
				resp.Status = "degraded"
			}
		}
	}
	optional("embedding", s.embeddingCheck)
	optional("llm", s.llmCheck)

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "api documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// handleCapabilities godoc
// @Summary      Runtime capabilities
// @Description  Reports whether semantic search and query augmentation are currently available
// @Tags         Search
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Capabilities
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /capabilities [get]
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if s.runtimeConfig == nil {
		writeJSON(w, http.StatusOK, domain.Capabilities{})
		return
	}
	writeJSON(w, http.StatusOK, s.runtimeConfig.Capabilities())
}

// Search endpoints

// handleSearch godoc
// @Summary      Hybrid search
// @Description  Ranks chunks across the caller's documents by fused keyword and vector relevance
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SearchRequest  true  "Search query and options"
// @Success      200      {object}  domain.SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	result, err := s.searchService.Search(r.Context(), req.Query, userID(r), req.SearchOptions)
	if err != nil {
		s.writeServiceError(w, r, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSearchDocument godoc
// @Summary      Search within a document
// @Description  Ranks chunks of a single document
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int            true  "Document ID"
// @Param        request  body      SearchRequest  true  "Search query and options"
// @Success      200      {object}  domain.SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Document not found"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id}/search [post]
func (s *Server) handleSearchDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "document")
	if !ok {
		return
	}
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	result, err := s.searchService.SearchWithinDocument(r.Context(), id, req.Query, userID(r), req.SearchOptions)
	if err != nil {
		s.writeServiceError(w, r, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSearchAgent godoc
// @Summary      Search an agent's documents
// @Description  Ranks chunks of the documents configured on an agent
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int            true  "Agent ID"
// @Param        request  body      SearchRequest  true  "Search query and options"
// @Success      200      {object}  domain.SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Agent not found"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /agents/{id}/search [post]
func (s *Server) handleSearchAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "agent")
	if !ok {
		return
	}
	req, ok := decodeSearchRequest(w, r)
	if !ok {
		return
	}

	result, err := s.searchService.SearchAgentDocuments(r.Context(), id, req.Query, userID(r), req.SearchOptions)
	if err != nil {
		s.writeServiceError(w, r, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAugment godoc
// @Summary      Augment a query
// @Description  Rewrites a query using recent conversation history. Never fails; low-confidence rewrites are flagged as unused.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.AugmentationRequest  true  "Query and conversation"
// @Success      200      {object}  domain.AugmentationResult
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /search/augment [post]
func (s *Server) handleAugment(w http.ResponseWriter, r *http.Request) {
	var req domain.AugmentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := domain.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.HistoryLimit < 0 {
		writeError(w, http.StatusBadRequest, "history_limit must not be negative")
		return
	}
	if req.ChatType == "" {
		req.ChatType = domain.ChatTypeGeneral
	}
	req.UserID = userID(r)

	if s.augmentationService == nil {
		writeJSON(w, http.StatusOK, domain.UnaugmentedResult(req.Query))
		return
	}
	writeJSON(w, http.StatusOK, s.augmentationService.AugmentQuery(r.Context(), req))
}

// Conversation endpoints

// handleRecordTurn godoc
// @Summary      Record a conversation turn
// @Description  Appends a user or assistant turn to the caller's conversation. Recorded turns feed query augmentation.
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      TurnRequest  true  "Conversation and turn"
// @Success      201      {object}  domain.ChatTurn
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      503      {object}  ErrorResponse  "History store not configured"
// @Router       /conversations/turns [post]
func (s *Server) handleRecordTurn(w http.ResponseWriter, r *http.Request) {
	if s.conversationService == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation history not configured")
		return
	}
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChatType == "" {
		req.ChatType = domain.ChatTypeGeneral
	}

	conv := domain.HistoryQuery{
		UserID:    userID(r),
		ChatType:  req.ChatType,
		ContextID: req.ContextID,
		AgentID:   req.AgentID,
	}
	turn, err := s.conversationService.RecordTurn(r.Context(), conv, domain.ChatTurn{
		Role:    req.Role,
		Content: req.Content,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "failed to record turn")
		return
	}
	writeJSON(w, http.StatusCreated, turn)
}

// handleListTurns godoc
// @Summary      List conversation turns
// @Description  Returns the most recent turns of the caller's conversation, oldest first
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        chat_type   query     string  false  "general, document or agent"
// @Param        context_id  query     string  false  "Conversation context"
// @Param        agent_id    query     int     false  "Agent ID"
// @Param        limit       query     int     false  "Maximum turns (default 20, max 100)"
// @Success      200         {object}  TurnsResponse
// @Failure      400         {object}  ErrorResponse  "Invalid request"
// @Failure      401         {object}  ErrorResponse  "Unauthorized"
// @Failure      503         {object}  ErrorResponse  "History store not configured"
// @Router       /conversations/turns [get]
func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	if s.conversationService == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation history not configured")
		return
	}
	q := r.URL.Query()
	conv := domain.HistoryQuery{
		UserID:    userID(r),
		ChatType:  domain.ChatType(q.Get("chat_type")),
		ContextID: q.Get("context_id"),
	}
	if conv.ChatType == "" {
		conv.ChatType = domain.ChatTypeGeneral
	}
	if v := q.Get("agent_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid agent_id")
			return
		}
		conv.AgentID = &id
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		conv.Limit = limit
	}

	turns, err := s.conversationService.History(r.Context(), conv)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, TurnsResponse{Turns: turns})
}

// Helpers

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (*SearchRequest, bool) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := domain.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, "query is required")
		return nil, false
	}
	return &req, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name+" id")
		return 0, false
	}
	return id, true
}

func userID(r *http.Request) string {
	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		return authCtx.UserID
	}
	return ""
}

// writeServiceError maps domain errors to status codes. Unexpected errors
// are logged and hidden behind fallback.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
