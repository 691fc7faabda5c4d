package health

import (
	"context"

	"github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	knowledge KnowledgeReporter
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(knowledge KnowledgeReporter, embedding EmbeddingChecker) *Service {
	return &Service{knowledge: knowledge, embedding: embedding}
}

// Check runs health checks against all components. A knowledge index that
// has not been built yet is still healthy; only a failed build degrades
// the service, and the next generation request retries the build anyway.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.knowledge.Status().State == retrieval.StateFailed {
		checks["knowledge"] = CheckError
	} else {
		checks["knowledge"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
