package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// newKnowledgeServer serves a contents listing at /repos/{owner}/{repo}/contents/
// and raw files at /raw/{name}.
func newKnowledgeServer(t *testing.T, files map[string]string, extras []contentEntry) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/hiring-notes/contents/", func(w http.ResponseWriter, r *http.Request) {
		var entries []contentEntry
		for name := range files {
			entries = append(entries, contentEntry{
				Name:        name,
				Type:        "file",
				DownloadURL: server.URL + "/raw/" + name,
			})
		}
		entries = append(entries, extras...)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	})

	mux.HandleFunc("/raw/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/raw/"):]
		content, ok := files[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetch_DownloadsQualifyingFiles(t *testing.T) {
	files := map[string]string{
		"interview-tips.txt": "Always ask about motivation.",
		"salary-bands.txt":   "Bands are reviewed yearly. 日本語もOK。",
	}
	extras := []contentEntry{
		{Name: "README.md", Type: "file", DownloadURL: "http://ignored/readme"},
		{Name: "archive", Type: "dir"},
	}
	server := newKnowledgeServer(t, files, extras)

	f := NewFetcher(Config{BaseURL: server.URL, Owner: "acme", Repo: "hiring-notes"})

	docs, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		want, ok := files[doc.SourceID]
		if !ok {
			t.Errorf("unexpected document %q", doc.SourceID)
			continue
		}
		if doc.Content != want {
			t.Errorf("document %q content = %q, want %q", doc.SourceID, doc.Content, want)
		}
	}
}

func TestFetch_EmptyKnowledgeBase(t *testing.T) {
	extras := []contentEntry{
		{Name: "README.md", Type: "file", DownloadURL: "http://ignored/readme"},
	}
	server := newKnowledgeServer(t, nil, extras)

	f := NewFetcher(Config{BaseURL: server.URL, Owner: "acme", Repo: "hiring-notes"})

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, domain.ErrEmptyKnowledgeBase) {
		t.Fatalf("expected ErrEmptyKnowledgeBase, got %v", err)
	}
}

func TestFetch_ListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(Config{BaseURL: server.URL, Owner: "acme", Repo: "missing"})

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, domain.ErrKnowledgeFetch) {
		t.Fatalf("expected ErrKnowledgeFetch, got %v", err)
	}
}

func TestFetch_DownloadFailure(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/hiring-notes/contents/", func(w http.ResponseWriter, r *http.Request) {
		entries := []contentEntry{
			{Name: "gone.txt", Type: "file", DownloadURL: server.URL + "/raw/gone.txt"},
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/raw/gone.txt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(Config{BaseURL: server.URL, Owner: "acme", Repo: "hiring-notes"})

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, domain.ErrKnowledgeFetch) {
		t.Fatalf("expected ErrKnowledgeFetch, got %v", err)
	}
}

func TestFetch_CustomExtension(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/hiring-notes/contents/", func(w http.ResponseWriter, r *http.Request) {
		entries := []contentEntry{
			{Name: "notes.md", Type: "file", DownloadURL: server.URL + "/raw/notes.md"},
			{Name: "notes.txt", Type: "file", DownloadURL: server.URL + "/raw/notes.txt"},
		}
		_ = json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/raw/notes.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# markdown"))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(Config{
		BaseURL: server.URL, Owner: "acme", Repo: "hiring-notes", Extension: ".md",
	})

	docs, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(docs) != 1 || docs[0].SourceID != "notes.md" {
		t.Fatalf("expected only notes.md, got %+v", docs)
	}
}
