package posting

import (
	"context"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Retriever returns the chunks most relevant to a query text.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string) ([]domain.ScoredChunk, error)
}

// Generator produces text from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
