package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DownloadError reports a failed source video download
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download video from %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Downloader fetches source videos into a temp directory
type Downloader struct {
	client  *http.Client
	tempDir string
	maxSize int64
}

// DefaultMaxSize caps a single download
const DefaultMaxSize int64 = 500 * 1024 * 1024

// NewDownloader creates a downloader writing into tempDir
func NewDownloader(tempDir string, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
		},
		tempDir: tempDir,
		maxSize: DefaultMaxSize,
	}
}

// Download saves the body at url to a uniquely named file and returns its
// path. The caller owns the file.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(d.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	path := filepath.Join(d.tempDir, uuid.New().String()+"_input.mp4")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	written, copyErr := io.Copy(file, io.LimitReader(resp.Body, d.maxSize+1))
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		os.Remove(path)
		return "", &DownloadError{URL: url, Err: copyErr}
	case written > d.maxSize:
		os.Remove(path)
		return "", &DownloadError{URL: url, Err: fmt.Errorf("file exceeds %d bytes", d.maxSize)}
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, closeErr)
	}

	return path, nil
}
