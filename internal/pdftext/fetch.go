package pdftext

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxPDFBytes = 20 << 20
	maxAttempts = 3
)

// fetcher retrieves PDF bytes either from the local files directory (for
// uploaded documents referenced as /files/<name>) or over HTTP.
type fetcher struct {
	client   *http.Client
	filesDir string
}

func newFetcher(filesDir string, timeout time.Duration) *fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &fetcher{
		client:   &http.Client{Timeout: timeout},
		filesDir: filesDir,
	}
}

func (f *fetcher) bytes(ctx context.Context, location string) ([]byte, error) {
	if name, ok := strings.CutPrefix(location, "/files/"); ok {
		data, err := os.ReadFile(filepath.Join(f.filesDir, filepath.Base(name)))
		if err != nil {
			return nil, fmt.Errorf("read local pdf: %w", err)
		}
		return data, nil
	}

	var lastErr error
	for attempt := range maxAttempts {
		data, retryable, err := f.get(ctx, location)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (f *fetcher) get(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > maxPDFBytes {
		return nil, false, fmt.Errorf("get %s: document exceeds %d bytes", url, maxPDFBytes)
	}
	return data, false, nil
}

// backoff returns a duration for attempt n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 10*time.Second {
		base = 10 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
