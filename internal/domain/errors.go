package domain

import "errors"

var (
	// ErrMissingCredential signals an absent API credential. Detected at
	// configuration time, before any network call is made.
	ErrMissingCredential = errors.New("missing api credential")
	// ErrKnowledgeFetch signals a failure listing or downloading knowledge files.
	ErrKnowledgeFetch = errors.New("knowledge fetch failed")
	// ErrEmptyKnowledgeBase signals that the knowledge source contains no
	// qualifying files. Reported, non-crashing.
	ErrEmptyKnowledgeBase = errors.New("no knowledge files found")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a text-generation provider failure.
	ErrGenerationProvider = errors.New("generation provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch inside the index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrValidation signals invalid caller input.
	ErrValidation = errors.New("validation failed")
)
