package domain

// Document is one fetched knowledge file. Immutable once created;
// documents are transient and discarded after chunking.
type Document struct {
	SourceID string
	Content  string
}

// Chunk is a bounded text window derived from a Document. It is the unit
// of embedding and retrieval. Offset is the rune offset of the window
// start within the parent document; neighbouring chunks may overlap.
type Chunk struct {
	SourceID string
	Offset   int
	Content  string
}

// ScoredChunk is a retrieval result: a chunk with its similarity score.
// Higher score means closer to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
