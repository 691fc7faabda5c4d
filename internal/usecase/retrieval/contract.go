package retrieval

import (
	"context"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Fetcher lists and downloads the knowledge documents.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Document, error)
}

// Splitter turns documents into overlapping chunks.
type Splitter interface {
	Split(docs []domain.Document) []domain.Chunk
}
