package jobposting

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	owner     string
	repo      string
	baseURL   string
	extension string

	apiKey     string
	llmBaseURL string

	embeddingModel  string
	generationModel string
	temperature     float32
	maxTokens       int

	chunkSize    int
	chunkOverlap int
	topK         int

	httpClient *http.Client
	logger     *zap.Logger
}

// WithKnowledgeSource sets the owner and repository of the knowledge base.
func WithKnowledgeSource(owner, repo string) Option {
	return func(c *clientConfig) {
		c.owner = owner
		c.repo = repo
	}
}

// WithKnowledgeBaseURL overrides the contents API host. Useful for GitHub
// Enterprise or tests.
func WithKnowledgeBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithFileExtension sets the qualifying knowledge file extension.
// Default is ".txt".
func WithFileExtension(ext string) Option {
	return func(c *clientConfig) {
		c.extension = ext
	}
}

// WithAPIKey sets the hosted model credential.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithLLMBaseURL overrides the hosted model endpoint for both embedding
// and generation.
func WithLLMBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.llmBaseURL = url
	}
}

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(model string) Option {
	return func(c *clientConfig) {
		c.embeddingModel = model
	}
}

// WithGenerationModel sets the generation model name.
func WithGenerationModel(model string) Option {
	return func(c *clientConfig) {
		c.generationModel = model
	}
}

// WithTemperature sets the generation sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *clientConfig) {
		c.temperature = t
	}
}

// WithMaxTokens caps the generated completion length.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) {
		c.maxTokens = n
	}
}

// WithChunking sets the splitting window size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(c *clientConfig) {
		c.chunkSize = size
		c.chunkOverlap = overlap
	}
}

// WithTopK sets how many chunks each query retrieves.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

// WithHTTPClient sets the client used for knowledge fetching. Default is
// a client with a conservative timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
