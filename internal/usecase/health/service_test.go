package health

import (
	"context"
	"errors"
	"testing"

	"github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// --- Mocks ---

type mockKnowledgeReporter struct {
	status retrieval.Status
}

func (m *mockKnowledgeReporter) Status() retrieval.Status { return m.status }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockKnowledgeReporter{status: retrieval.Status{State: retrieval.StateBuilt}}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["knowledge"] != CheckOK {
		t.Errorf("expected knowledge %q, got %q", CheckOK, r.Checks["knowledge"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_IdleIndexIsHealthy(t *testing.T) {
	svc := New(&mockKnowledgeReporter{status: retrieval.Status{State: retrieval.StateIdle}}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("an unbuilt index is not a failure, got %q", r.Status)
	}
}

func TestCheck_FailedIndex(t *testing.T) {
	svc := New(&mockKnowledgeReporter{status: retrieval.Status{
		State: retrieval.StateFailed,
		Err:   errors.New("listing: 404"),
	}}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["knowledge"] != CheckError {
		t.Errorf("expected knowledge %q, got %q", CheckError, r.Checks["knowledge"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockKnowledgeReporter{status: retrieval.Status{State: retrieval.StateBuilt}}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockKnowledgeReporter{status: retrieval.Status{State: retrieval.StateBuilt}}, nil)
	r := svc.Check(context.Background())

	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be skipped when no checker is configured")
	}
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
}
