package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
	healthuc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/health"
	postinguc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/posting"
	"github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// --- Mocks ---

type mockPostings struct {
	result postinguc.Result
	err    error
}

func (m *mockPostings) Generate(_ context.Context, req domain.PostingRequest) (postinguc.Result, error) {
	if err := req.Validate(); err != nil {
		return postinguc.Result{}, err
	}
	if m.err != nil {
		return postinguc.Result{}, m.err
	}
	return m.result, nil
}

type mockKnowledge struct {
	chunks []domain.ScoredChunk
	err    error
	status retrieval.Status
}

func (m *mockKnowledge) Retrieve(_ context.Context, _ string) ([]domain.ScoredChunk, error) {
	return m.chunks, m.err
}

func (m *mockKnowledge) Status() retrieval.Status { return m.status }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestServer(p PostingService, k KnowledgeService, h HealthService) *httptest.Server {
	if p == nil {
		p = &mockPostings{}
	}
	if k == nil {
		k = &mockKnowledge{status: retrieval.Status{State: retrieval.StateBuilt}}
	}
	if h == nil {
		h = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"knowledge": healthuc.CheckOK}}}
	}
	r := chirouter.NewRouter()
	NewServer(p, k, h, zap.NewNop()).Register(r)
	return httptest.NewServer(r)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

// --- Tests ---

func TestGeneratePosting_Success(t *testing.T) {
	postings := &mockPostings{result: postinguc.Result{
		Posting:          "### Background\nWe build things.",
		Model:            "test-model",
		ChunksUsed:       3,
		PromptTokens:     120,
		CompletionTokens: 80,
	}}
	srv := newTestServer(postings, nil, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/postings/generate", "application/json",
		strings.NewReader(`{"job_title":"Backend Engineer","required_skills":"Go"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[generateResponse](t, resp)
	if body.Posting != postings.result.Posting {
		t.Errorf("posting = %q", body.Posting)
	}
	if body.ChunksUsed != 3 {
		t.Errorf("chunks_used = %d", body.ChunksUsed)
	}
}

func TestGeneratePosting_InvalidBody(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/postings/generate", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[errorResponse](t, resp)
	if body.Code != codeBadRequest {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGeneratePosting_MissingJobTitle(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/postings/generate", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[errorResponse](t, resp)
	if body.Code != codeValidationFailed {
		t.Errorf("code = %q", body.Code)
	}
}

func TestGeneratePosting_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty knowledge base", fmt.Errorf("setup: %w", domain.ErrEmptyKnowledgeBase), http.StatusServiceUnavailable, codeEmptyKnowledgeBase},
		{"fetch failed", fmt.Errorf("listing: %w", domain.ErrKnowledgeFetch), http.StatusServiceUnavailable, codeKnowledgeFetch},
		{"embedding provider", fmt.Errorf("embed: %w", domain.ErrEmbeddingProvider), http.StatusBadGateway, codeEmbeddingProvider},
		{"generation provider", fmt.Errorf("chat: %w", domain.ErrGenerationProvider), http.StatusBadGateway, codeGenerationProvider},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, codeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&mockPostings{err: tt.err}, nil, nil)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/v1/postings/generate", "application/json",
				strings.NewReader(`{"job_title":"Backend Engineer"}`))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeBody[errorResponse](t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestSearchKnowledge(t *testing.T) {
	knowledge := &mockKnowledge{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{SourceID: "a.txt", Offset: 0, Content: "alpha"}, Score: 0.9},
		{Chunk: domain.Chunk{SourceID: "b.txt", Offset: 10, Content: "beta"}, Score: 0.5},
	}}
	srv := newTestServer(nil, knowledge, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/knowledge/search?q=alpha")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[searchResponse](t, resp)
	if body.Total != 2 {
		t.Fatalf("total = %d", body.Total)
	}
	if body.Items[0].Source != "a.txt" || body.Items[0].Score != 0.9 {
		t.Errorf("first item = %+v", body.Items[0])
	}
}

func TestSearchKnowledge_TruncatesToK(t *testing.T) {
	knowledge := &mockKnowledge{chunks: []domain.ScoredChunk{
		{Chunk: domain.Chunk{SourceID: "a.txt", Content: "alpha"}, Score: 0.9},
		{Chunk: domain.Chunk{SourceID: "b.txt", Content: "beta"}, Score: 0.5},
	}}
	srv := newTestServer(nil, knowledge, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/knowledge/search?q=alpha&k=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	body := decodeBody[searchResponse](t, resp)
	if body.Total != 1 {
		t.Errorf("total = %d, want 1", body.Total)
	}
}

func TestSearchKnowledge_MissingQuery(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/knowledge/search")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSearchKnowledge_BadK(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/knowledge/search?q=alpha&k=zero")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestKnowledgeStatus(t *testing.T) {
	knowledge := &mockKnowledge{status: retrieval.Status{
		State:     retrieval.StateFailed,
		Documents: 2,
		Err:       fmt.Errorf("listing: %w", domain.ErrKnowledgeFetch),
	}}
	srv := newTestServer(nil, knowledge, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/knowledge/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[statusResponse](t, resp)
	if body.State != "failed" {
		t.Errorf("state = %q", body.State)
	}
	if body.Error == "" || strings.Contains(body.Error, "listing") {
		t.Errorf("error should be the sanitized sentinel message, got %q", body.Error)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	health := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"knowledge": healthuc.CheckError},
	}}
	srv := newTestServer(nil, nil, health)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[healthResponse](t, resp)
	if body.Status != "degraded" {
		t.Errorf("status = %q", body.Status)
	}
	if body.Checks["knowledge"] != "error" {
		t.Errorf("checks = %v", body.Checks)
	}
}
