// Package corpus fetches, loads, and filters the training text.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultURL points at the plain-text "Alice's Adventures in Wonderland".
const DefaultURL = "https://www.gutenberg.org/files/11/11-0.txt"

// Download describes a fetched corpus file.
type Download struct {
	Path   string
	Bytes  int64
	Cached bool
}

// Fetch downloads url into dest unless dest already exists and force is false.
func Fetch(ctx context.Context, url, dest string, force bool) (Download, error) {
	if url == "" {
		return Download{}, fmt.Errorf("corpus url is required")
	}
	if dest == "" {
		return Download{}, fmt.Errorf("corpus path is required")
	}
	if !force {
		if info, err := os.Stat(dest); err == nil {
			return Download{Path: dest, Bytes: info.Size(), Cached: true}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Download{}, fmt.Errorf("failed to stat corpus: %w", err)
		}
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Download{}, fmt.Errorf("failed to create corpus dir: %w", err)
	}

	resp, err := httpRequest(ctx, url)
	if err != nil {
		return Download{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Download{}, fmt.Errorf("unexpected corpus status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(dir, "corpus-*.txt")
	if err != nil {
		return Download{}, fmt.Errorf("failed to create temp corpus: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return Download{}, fmt.Errorf("failed to download corpus: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return Download{}, fmt.Errorf("failed to close temp corpus: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return Download{}, fmt.Errorf("failed to move corpus into place: %w", err)
	}
	return Download{Path: dest, Bytes: n}, nil
}

func httpRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
