package health

import (
	"context"

	"github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// KnowledgeReporter exposes the state of the knowledge index.
type KnowledgeReporter interface {
	Status() retrieval.Status
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
