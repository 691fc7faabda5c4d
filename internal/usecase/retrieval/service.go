// Package retrieval composes the knowledge pipeline: fetch documents,
// chunk them, embed the chunks, and build the similarity index. The build
// runs at most once concurrently and a successful build is memoized for
// the process lifetime.
package retrieval

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
	"github.com/yuuuzooo/job-posting-mvp/internal/index"
)

// State is the knowledge index lifecycle state.
type State string

const (
	// StateIdle means no build has been attempted yet.
	StateIdle State = "idle"
	// StateBuilding means a build is in flight.
	StateBuilding State = "building"
	// StateBuilt means the index is ready and memoized.
	StateBuilt State = "built"
	// StateFailed means the last build attempt failed.
	StateFailed State = "failed"
)

const defaultTopK = 5

// buildKey is the singleflight key: one knowledge base per service.
const buildKey = "knowledge"

// Status is a snapshot of the pipeline state for health and status endpoints.
type Status struct {
	State     State
	Documents int
	Chunks    int
	Dimension int
	Err       error
}

// Service owns the similarity index for the process lifetime. Queries
// never mutate it; only the memoized build writes it.
type Service struct {
	fetch      Fetcher
	split      Splitter
	docEmbed   domain.Embedder
	queryEmbed domain.Embedder
	topK       int
	logger     *zap.Logger

	group singleflight.Group

	mu       sync.RWMutex
	state    State
	idx      *index.Index
	docCount int
	lastErr  error
}

// New creates a retrieval service. docEmbed and queryEmbed must use the
// identical model: build-time and query-time embeddings share one vector
// space. They are usually the same decorated instance.
func New(fetch Fetcher, split Splitter, docEmbed, queryEmbed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{
		fetch:      fetch,
		split:      split,
		docEmbed:   docEmbed,
		queryEmbed: queryEmbed,
		topK:       defaultTopK,
		logger:     logger,
		state:      StateIdle,
	}
}

// WithTopK overrides the default number of chunks returned per query.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// Setup builds the index once. Concurrent callers share the in-flight
// build; after a success every call is a cheap memoized no-op. A failed
// attempt is returned to all waiters, recorded, and the next Setup call
// may retry with a fresh build.
func (s *Service) Setup(ctx context.Context) error {
	s.mu.RLock()
	built := s.state == StateBuilt
	s.mu.RUnlock()
	if built {
		return nil
	}

	_, err, _ := s.group.Do(buildKey, func() (any, error) {
		// Re-check under the flight: a racing caller may have finished the build.
		s.mu.RLock()
		built := s.state == StateBuilt
		s.mu.RUnlock()
		if built {
			return nil, nil
		}
		return nil, s.build(ctx)
	})
	return err
}

// Retrieve returns up to topK chunks most similar to queryText, triggering
// the memoized setup if it has not run yet.
func (s *Service) Retrieve(ctx context.Context, queryText string) ([]domain.ScoredChunk, error) {
	if err := s.Setup(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()

	res, err := s.queryEmbed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := idx.Search(res.Embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return chunks, nil
}

// Status reports the current pipeline state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{State: s.state, Documents: s.docCount, Err: s.lastErr}
	if s.idx != nil {
		st.Chunks = s.idx.Len()
		st.Dimension = s.idx.Dimension()
	}
	return st
}

// build runs the full pipeline: fetch -> chunk -> embed -> index.
// Short-circuits at the first failing stage.
func (s *Service) build(ctx context.Context) error {
	s.setState(StateBuilding, nil)

	docs, err := s.fetch.Fetch(ctx)
	if err != nil {
		return s.fail(fmt.Errorf("fetch knowledge: %w", err))
	}

	chunks := s.split.Split(docs)
	if len(chunks) == 0 {
		return s.fail(fmt.Errorf("documents produced no chunks: %w", domain.ErrEmptyKnowledgeBase))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embedded, err := domain.BatchEmbed(ctx, s.docEmbed, texts)
	if err != nil {
		return s.fail(fmt.Errorf("embed chunks: %w", err))
	}

	entries := make([]index.Entry, len(chunks))
	for i := range chunks {
		entries[i] = index.Entry{Vector: embedded.Embeddings[i], Chunk: chunks[i]}
	}

	idx, err := index.Build(entries)
	if err != nil {
		return s.fail(fmt.Errorf("build index: %w", err))
	}

	s.mu.Lock()
	s.state = StateBuilt
	s.idx = idx
	s.docCount = len(docs)
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("Knowledge index built",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", idx.Dimension()),
		zap.Int("embedding_tokens", embedded.TotalTokens),
	)
	return nil
}

func (s *Service) fail(err error) error {
	s.setState(StateFailed, err)
	s.logger.Warn("Knowledge index build failed", zap.Error(err))
	return err
}

func (s *Service) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}
