package hls

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ProgressFunc receives cumulative download progress in the range [0,100]
type ProgressFunc func(percent int)

// Fetcher downloads manifests and media segments over plain HTTP GET.
// Segments are fetched sequentially in manifest order; order is load-bearing
// for the concatenation step.
type Fetcher struct {
	client     *http.Client
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewFetcher creates a new fetcher. retries is the number of additional
// attempts per segment after the first failure; zero makes any failure
// immediately fatal to the job.
func NewFetcher(timeout time.Duration, retries int, retryDelay time.Duration, logger *zap.Logger) *Fetcher {
	if retries < 0 {
		retries = 0
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		retries:    retries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// FetchManifest retrieves the playlist text from the given URL
func (f *Fetcher) FetchManifest(ctx context.Context, manifestURL string) (string, error) {
	body, err := f.get(ctx, manifestURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch manifest: %w", err)
	}
	return string(body), nil
}

// FetchSegments downloads every segment in order and returns the raw
// buffers. After each segment it reports cumulative progress as
// (completed/total)*100. The first segment that fails after all retry
// attempts aborts the whole fetch; partial data is discarded by the caller.
func (f *Fetcher) FetchSegments(ctx context.Context, segmentURLs []string, onProgress ProgressFunc) ([][]byte, error) {
	if len(segmentURLs) == 0 {
		return nil, fmt.Errorf("no segments to download")
	}

	segments := make([][]byte, 0, len(segmentURLs))
	total := len(segmentURLs)

	for i, segmentURL := range segmentURLs {
		data, err := f.getWithRetry(ctx, segmentURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch segment %d/%d: %w", i+1, total, err)
		}
		segments = append(segments, data)

		if onProgress != nil {
			onProgress((i + 1) * 100 / total)
		}
	}

	return segments, nil
}

// getWithRetry fetches one URL, retrying transient failures up to the
// configured attempt count
func (f *Fetcher) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			if f.logger != nil {
				f.logger.Warn("Retrying segment fetch",
					zap.String("url", rawURL),
					zap.Int("attempt", attempt),
					zap.Error(lastErr))
			}
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := f.get(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		// Context cancellation is never transient
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, rawURL)
	}

	return io.ReadAll(resp.Body)
}
