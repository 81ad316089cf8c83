package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// StatementFetcher downloads operating statements published by the property
// data service. If cacheDir is set, bodies are cached by URL hash.
type StatementFetcher struct {
	client   *http.Client
	cacheDir string
}

// NewStatementFetcher creates a fetcher with a 30s client timeout.
func NewStatementFetcher(cacheDir string) *StatementFetcher {
	return &StatementFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchHTML returns the statement HTML at url, from cache when available.
func (f *StatementFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	cachePath := ""
	if f.cacheDir != "" {
		sum := sha256.Sum256([]byte(url))
		cachePath = filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8])+".html")
		if content, err := os.ReadFile(cachePath); err == nil && len(content) > 0 {
			return string(content), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch statement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("statement fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read statement body: %w", err)
	}

	if cachePath != "" {
		if err := os.MkdirAll(f.cacheDir, 0755); err == nil {
			_ = os.WriteFile(cachePath, body, 0644)
		}
	}
	return string(body), nil
}

// FetchStatement downloads and parses an operating statement.
func (f *StatementFetcher) FetchStatement(ctx context.Context, url string) (*Statement, error) {
	html, err := f.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseOperatingStatement(html)
}
