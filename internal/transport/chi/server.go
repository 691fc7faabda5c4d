// Package chi exposes the HTTP API.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
	healthuc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/health"
	postinguc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/posting"
	"github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeEmptyKnowledgeBase = "empty_knowledge_base"
	codeKnowledgeFetch     = "knowledge_fetch_failed"
	codeEmbeddingProvider  = "embedding_provider_error"
	codeGenerationProvider = "generation_provider_error"
	codeInternalError      = "internal_error"
)

// PostingService generates job postings.
type PostingService interface {
	Generate(ctx context.Context, req domain.PostingRequest) (postinguc.Result, error)
}

// KnowledgeService answers similarity queries against the knowledge index.
type KnowledgeService interface {
	Retrieve(ctx context.Context, queryText string) ([]domain.ScoredChunk, error)
	Status() retrieval.Status
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	postings      PostingService
	knowledge     KnowledgeService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(postings PostingService, knowledge KnowledgeService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		postings:  postings,
		knowledge: knowledge,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyKnowledgeBase, http.StatusServiceUnavailable, codeEmptyKnowledgeBase),
		sentinelHandler(domain.ErrKnowledgeFetch, http.StatusServiceUnavailable, codeKnowledgeFetch),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrGenerationProvider, http.StatusBadGateway, codeGenerationProvider),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/postings/generate", s.GeneratePosting)
	r.Get("/v1/knowledge/search", s.SearchKnowledge)
	r.Get("/v1/knowledge/status", s.KnowledgeStatus)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type generateRequest struct {
	JobTitle       string `json:"job_title"`
	TargetAudience string `json:"target_audience"`
	RequiredSkills string `json:"required_skills"`
	WelcomeSkills  string `json:"welcome_skills"`
}

type generateResponse struct {
	Posting          string `json:"posting"`
	Model            string `json:"model"`
	ChunksUsed       int    `json:"chunks_used"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type searchResultItem struct {
	Source  string  `json:"source"`
	Offset  int     `json:"offset"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type statusResponse struct {
	State     string `json:"state"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Dimension int    `json:"dimension"`
	Error     string `json:"error,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GeneratePosting handles POST /v1/postings/generate.
func (s *Server) GeneratePosting(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.postings.Generate(r.Context(), domain.PostingRequest{
		JobTitle:       req.JobTitle,
		TargetAudience: req.TargetAudience,
		RequiredSkills: req.RequiredSkills,
		WelcomeSkills:  req.WelcomeSkills,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Posting:          res.Posting,
		Model:            res.Model,
		ChunksUsed:       res.ChunksUsed,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
	})
}

// SearchKnowledge handles GET /v1/knowledge/search.
func (s *Server) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Query parameter q is required")
		return
	}

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "Query parameter k must be a positive integer")
			return
		}
		k = parsed
	}

	chunks, err := s.knowledge.Retrieve(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if k > 0 && k < len(chunks) {
		chunks = chunks[:k]
	}

	items := make([]searchResultItem, len(chunks))
	for i, c := range chunks {
		items[i] = searchResultItem{
			Source:  c.Chunk.SourceID,
			Offset:  c.Chunk.Offset,
			Content: c.Chunk.Content,
			Score:   c.Score,
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// KnowledgeStatus handles GET /v1/knowledge/status.
func (s *Server) KnowledgeStatus(w http.ResponseWriter, r *http.Request) {
	st := s.knowledge.Status()

	resp := statusResponse{
		State:     string(st.State),
		Documents: st.Documents,
		Chunks:    st.Chunks,
		Dimension: st.Dimension,
	}
	if st.Err != nil {
		resp.Error = safeDomainMessage(st.Err)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrEmptyKnowledgeBase,
		domain.ErrKnowledgeFetch,
		domain.ErrEmbeddingProvider,
		domain.ErrGenerationProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
