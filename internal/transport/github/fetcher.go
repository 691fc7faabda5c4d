// Package github fetches plain-text knowledge files from a repository's
// top level via the contents API. No authentication: the knowledge
// repository is expected to be public.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultExt     = ".txt"
	defaultTimeout = 30 * time.Second

	// maxFileBytes caps a single knowledge file download.
	maxFileBytes = 4 << 20
)

// Fetcher lists and downloads knowledge files from one repository.
type Fetcher struct {
	baseURL string
	owner   string
	repo    string
	ext     string
	client  *http.Client
	logger  *zap.Logger
}

// Config holds the knowledge source settings.
type Config struct {
	BaseURL   string // contents API host, default https://api.github.com
	Owner     string
	Repo      string
	Extension string // qualifying file extension, default .txt
	Timeout   time.Duration
	Client    *http.Client // optional, overrides Timeout when set
	Logger    *zap.Logger
}

// NewFetcher creates a knowledge fetcher for owner/repo.
func NewFetcher(cfg Config) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ext := cfg.Extension
	if ext == "" {
		ext = defaultExt
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		ext:     ext,
		client:  client,
		logger:  logger,
	}
}

// contentEntry mirrors one item of the contents API listing response.
type contentEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Fetch lists the repository's top-level contents and downloads every file
// with the qualifying extension as UTF-8 text. Documents come back in
// listing order. A listing or download failure wraps ErrKnowledgeFetch;
// zero qualifying files wraps ErrEmptyKnowledgeBase.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.Document, error) {
	entries, err := f.listContents(ctx)
	if err != nil {
		return nil, err
	}

	var files []contentEntry
	for _, e := range entries {
		if e.Type == "file" && e.DownloadURL != "" && strings.HasSuffix(e.Name, f.ext) {
			files = append(files, e)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s/%s has no %s files: %w",
			f.owner, f.repo, f.ext, domain.ErrEmptyKnowledgeBase)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, file := range files {
		content, err := f.download(ctx, file.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", file.Name, err)
		}
		docs = append(docs, domain.Document{SourceID: file.Name, Content: content})
		f.logger.Debug("Fetched knowledge file",
			zap.String("name", file.Name),
			zap.Int("bytes", len(content)),
		)
	}

	f.logger.Info("Fetched knowledge base",
		zap.String("repo", f.owner+"/"+f.repo),
		zap.Int("files", len(docs)),
	)
	return docs, nil
}

func (f *Fetcher) listContents(ctx context.Context) ([]contentEntry, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/", f.baseURL, f.owner, f.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w: %w", err, domain.ErrKnowledgeFetch)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("list contents: status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(body)), domain.ErrKnowledgeFetch)
	}

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse contents listing: %w: %w", err, domain.ErrKnowledgeFetch)
	}
	return entries, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", err, domain.ErrKnowledgeFetch)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrKnowledgeFetch)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w: %w", err, domain.ErrKnowledgeFetch)
	}
	return string(body), nil
}
