// Package posting assembles the generation prompt from retrieved knowledge
// and user form input, and calls the hosted generation model.
package posting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Result is one generated job posting. It exists only for the duration of
// a single request/response cycle; nothing is persisted.
type Result struct {
	Posting          string
	Model            string
	ChunksUsed       int
	PromptTokens     int
	CompletionTokens int
}

// Service generates job postings.
type Service struct {
	retriever Retriever
	generator Generator
	logger    *zap.Logger
}

// New creates a posting service.
func New(retriever Retriever, generator Generator, logger *zap.Logger) *Service {
	return &Service{retriever: retriever, generator: generator, logger: logger}
}

// Generate validates the form input, retrieves the most relevant knowledge
// chunks, and asks the generation model for a posting. The output's
// structure is the model's responsibility; no section validation happens
// here. Failures never poison shared state, so the caller can retry.
func (s *Service) Generate(ctx context.Context, req domain.PostingRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	chunks, err := s.retriever.Retrieve(ctx, renderRequirements(req))
	if err != nil {
		return Result{}, fmt.Errorf("retrieve knowledge: %w", err)
	}

	prompt := assemblePrompt(chunks, req)

	gen, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate posting: %w", err)
	}

	s.logger.Info("Posting generated",
		zap.String("job_title", req.JobTitle),
		zap.String("model", gen.Model),
		zap.Int("chunks_used", len(chunks)),
		zap.Int("prompt_tokens", gen.PromptTokens),
		zap.Int("completion_tokens", gen.CompletionTokens),
	)

	return Result{
		Posting:          gen.Text,
		Model:            gen.Model,
		ChunksUsed:       len(chunks),
		PromptTokens:     gen.PromptTokens,
		CompletionTokens: gen.CompletionTokens,
	}, nil
}
