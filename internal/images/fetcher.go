// Package images downloads question images to deterministic local paths.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// HTTPDoer abstracts the HTTP client used for image downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher stores image bytes under <dir>/<chapter>/<id><ext> so a re-run can
// detect an already-downloaded image by path alone and skip the fetch.
type Fetcher struct {
	dir     string
	client  HTTPDoer
	timeout time.Duration
}

// NewFetcher constructs a fetcher rooted at dir. A nil client uses
// http.DefaultClient.
func NewFetcher(dir string, client HTTPDoer) (*Fetcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("image directory is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{dir: dir, client: client, timeout: 30 * time.Second}, nil
}

// Ref returns the local reference an image for (chapter, id) would be
// stored under, relative to the image directory.
func (f *Fetcher) Ref(chapter, id, imageURL string) string {
	return path.Join(chapter, id+extensionOf(imageURL))
}

// Fetch downloads the image for a question unless it is already present,
// and returns its local reference.
func (f *Fetcher) Fetch(ctx context.Context, chapter, id, imageURL string) (string, error) {
	ref := f.Ref(chapter, id, imageURL)
	target := filepath.Join(f.dir, filepath.FromSlash(ref))
	if _, err := os.Stat(target); err == nil {
		return ref, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("fetch image %s: unexpected status %s", imageURL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	tmpPath := target + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return "", copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return "", closeErr
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return ref, nil
}

func extensionOf(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return ".jpg"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".jpg"
}
