package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
)

// Source is one report file that can be fetched.
type Source interface {
	// Name identifies the source in logs, failures and reports.
	Name() string
	// Open returns the raw file contents.
	Open(ctx context.Context) ([]byte, error)
}

// FileSource reads a report file from disk.
type FileSource struct {
	ID   string
	Path string
}

// Name implements Source.
func (s FileSource) Name() string {
	return s.ID
}

// Open implements Source.
func (s FileSource) Open(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	return data, nil
}

// HTTPSource fetches a report file with GET, retrying transient failures.
type HTTPSource struct {
	ID     string
	URL    string
	Client *http.Client
	Retry  RetryPolicy
}

// Name implements Source.
func (s HTTPSource) Name() string {
	return s.ID
}

// Open implements Source. Any non-2xx status is a failure; 4xx responses are not retried.
func (s HTTPSource) Open(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	var body []byte

	err := Retry(ctx, s.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return &permanentError{err: fmt.Errorf("failed to build request: %w", err)}
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", s.URL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr := fmt.Errorf("failed to fetch %s: unexpected status %d", s.URL, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return &permanentError{err: statusErr}
			}

			return statusErr
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read body of %s: %w", s.URL, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// DirectorySources resolves the given file names inside dir.
func DirectorySources(dir string, names []string) []Source {
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, FileSource{ID: name, Path: filepath.Join(dir, name)})
	}

	return sources
}

// PathSources wraps explicit file paths, named by their base name.
func PathSources(paths []string) []Source {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, FileSource{ID: filepath.Base(p), Path: p})
	}

	return sources
}

// GlobSources returns every *.json file in dir, sorted by name.
func GlobSources(dir string) ([]Source, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Strings(matches)

	return PathSources(matches), nil
}

// HTTPSources resolves the given file names against base.
func HTTPSources(client *http.Client, base string, names []string, retry RetryPolicy) ([]Source, error) {
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		u, err := url.JoinPath(base, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s against %s: %w", name, base, err)
		}

		sources = append(sources, HTTPSource{ID: name, URL: u, Client: client, Retry: retry})
	}

	return sources, nil
}
