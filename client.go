// Package jobposting generates job postings grounded in a remote
// knowledge base of recruiting know-how. It fetches plain-text files
// from a repository, chunks and embeds them into an in-memory
// similarity index, and assembles retrieval-augmented prompts for a
// hosted generation model.
package jobposting

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yuuuzooo/job-posting-mvp/internal/chunker"
	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
	"github.com/yuuuzooo/job-posting-mvp/internal/transport/github"
	openaiTransport "github.com/yuuuzooo/job-posting-mvp/internal/transport/openai"
	postinguc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/posting"
	retrievaluc "github.com/yuuuzooo/job-posting-mvp/internal/usecase/retrieval"
)

// Sentinel errors surfaced to library callers.
var (
	// ErrMissingCredential means no API key was provided.
	ErrMissingCredential = domain.ErrMissingCredential
	// ErrEmptyKnowledgeBase means the source repository holds no qualifying files.
	ErrEmptyKnowledgeBase = domain.ErrEmptyKnowledgeBase
	// ErrKnowledgeFetch means the knowledge repository could not be read.
	ErrKnowledgeFetch = domain.ErrKnowledgeFetch
	// ErrEmbeddingProvider means the embedding provider failed.
	ErrEmbeddingProvider = domain.ErrEmbeddingProvider
	// ErrGenerationProvider means the generation provider failed.
	ErrGenerationProvider = domain.ErrGenerationProvider
	// ErrValidation means the posting input was invalid.
	ErrValidation = domain.ErrValidation
)

// PostingInput is the job posting request form. JobTitle is required;
// all other fields are optional.
type PostingInput struct {
	JobTitle       string
	TargetAudience string
	RequiredSkills string
	WelcomeSkills  string
}

// Posting is one generated job posting.
type Posting struct {
	Text             string
	Model            string
	ChunksUsed       int
	PromptTokens     int
	CompletionTokens int
}

// KnowledgeChunk is one scored retrieval result.
type KnowledgeChunk struct {
	Source  string
	Offset  int
	Content string
	Score   float32
}

// Client is the jobposting library entry point.
type Client struct {
	retrieval *retrievaluc.Service
	posting   *postinguc.Service
}

// New creates a Client. The knowledge source and API key are required;
// everything else has working defaults.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		extension:       ".txt",
		embeddingModel:  "text-embedding-3-small",
		generationModel: "gpt-4o-mini",
		temperature:     0.7,
		chunkSize:       1000,
		chunkOverlap:    100,
		topK:            5,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.apiKey == "" {
		return nil, fmt.Errorf("jobposting: %w (use WithAPIKey)", ErrMissingCredential)
	}
	if cfg.owner == "" || cfg.repo == "" {
		return nil, errors.New("jobposting: knowledge source required (use WithKnowledgeSource)")
	}

	splitter, err := chunker.New(cfg.chunkSize, cfg.chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("jobposting: %w", err)
	}

	fetcher := github.NewFetcher(github.Config{
		BaseURL:   cfg.baseURL,
		Owner:     cfg.owner,
		Repo:      cfg.repo,
		Extension: cfg.extension,
		Client:    cfg.httpClient,
		Logger:    cfg.logger,
	})

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:   cfg.apiKey,
		BaseURL:  cfg.llmBaseURL,
		Model:    cfg.embeddingModel,
		Provider: "openai",
		Logger:   cfg.logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.apiKey,
		BaseURL:     cfg.llmBaseURL,
		Model:       cfg.generationModel,
		Temperature: cfg.temperature,
		MaxTokens:   cfg.maxTokens,
		Provider:    "openai",
		Logger:      cfg.logger,
	})

	retrievalSvc := retrievaluc.New(fetcher, splitter, embedder, embedder, cfg.logger).
		WithTopK(cfg.topK)
	postingSvc := postinguc.New(retrievalSvc, generator, cfg.logger)

	return &Client{retrieval: retrievalSvc, posting: postingSvc}, nil
}

// WarmUp eagerly builds the knowledge index. Optional: the first call to
// GeneratePosting or SearchKnowledge builds it on demand.
func (c *Client) WarmUp(ctx context.Context) error {
	if err := c.retrieval.Setup(ctx); err != nil {
		return fmt.Errorf("jobposting: warm up: %w", err)
	}
	return nil
}

// GeneratePosting generates one job posting grounded in the knowledge base.
func (c *Client) GeneratePosting(ctx context.Context, input PostingInput) (Posting, error) {
	res, err := c.posting.Generate(ctx, domain.PostingRequest{
		JobTitle:       input.JobTitle,
		TargetAudience: input.TargetAudience,
		RequiredSkills: input.RequiredSkills,
		WelcomeSkills:  input.WelcomeSkills,
	})
	if err != nil {
		return Posting{}, fmt.Errorf("jobposting: %w", err)
	}

	return Posting{
		Text:             res.Posting,
		Model:            res.Model,
		ChunksUsed:       res.ChunksUsed,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
	}, nil
}

// SearchKnowledge returns the chunks most similar to the query text.
func (c *Client) SearchKnowledge(ctx context.Context, query string) ([]KnowledgeChunk, error) {
	chunks, err := c.retrieval.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("jobposting: %w", err)
	}

	out := make([]KnowledgeChunk, len(chunks))
	for i, ch := range chunks {
		out[i] = KnowledgeChunk{
			Source:  ch.Chunk.SourceID,
			Offset:  ch.Chunk.Offset,
			Content: ch.Chunk.Content,
			Score:   ch.Score,
		}
	}
	return out, nil
}
