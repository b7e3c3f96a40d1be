package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/domain"
)

// PlaybackResolver resolves asset ids into HLS manifest URLs through the
// playback edge API. The policy key stays server-side; clients only ever
// see the resolved manifest URL.
type PlaybackResolver struct {
	config *domain.ResolverConfig
	client *http.Client
	logger *zap.Logger
}

// NewPlaybackResolver creates a new resolver
func NewPlaybackResolver(config *domain.ResolverConfig, logger *zap.Logger) *PlaybackResolver {
	return &PlaybackResolver{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// playbackResponse is the subset of the edge API response we consume
type playbackResponse struct {
	Description string `json:"description"`
	Poster      string `json:"poster"`
	Sources     []struct {
		Src  string `json:"src"`
		Type string `json:"type"`
	} `json:"sources"`
}

// Resolve fetches playback metadata for the asset and returns its HLS
// source. Transient network failures and 5xx responses are retried with a
// growing delay.
func (r *PlaybackResolver) Resolve(ctx context.Context, assetID string) (*domain.StreamSource, error) {
	if assetID == "" {
		return nil, fmt.Errorf("asset id is required")
	}
	if r.config.AccountID == "" || r.config.PolicyKey == "" {
		return nil, fmt.Errorf("resolver account id and policy key must be configured")
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/videos/ref%%3A%s",
		r.config.BaseURL, r.config.AccountID, url.PathEscape(assetID))

	var lastErr error
	for attempt := 0; attempt <= r.config.Retries; attempt++ {
		if attempt > 0 {
			delay := r.config.RetryDelay * time.Duration(attempt)
			if r.logger != nil {
				r.logger.Warn("Retrying stream resolve",
					zap.String("asset_id", assetID),
					zap.Int("attempt", attempt),
					zap.Duration("delay", delay),
					zap.Error(lastErr))
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		source, retryable, err := r.resolveOnce(ctx, endpoint)
		if err == nil {
			return source, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, fmt.Errorf("failed to resolve asset %s: %w", assetID, lastErr)
}

func (r *PlaybackResolver) resolveOnce(ctx context.Context, endpoint string) (*domain.StreamSource, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", fmt.Sprintf("application/json;pk=%s", r.config.PolicyKey))
	if r.config.Origin != "" {
		req.Header.Set("Origin", r.config.Origin)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("playback API returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	var payload playbackResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false, fmt.Errorf("invalid playback API response: %w", err)
	}

	for _, source := range payload.Sources {
		if source.Type == "application/x-mpegURL" && source.Src != "" {
			return &domain.StreamSource{
				ManifestURL: source.Src,
				Description: payload.Description,
				Poster:      payload.Poster,
			}, false, nil
		}
	}
	return nil, false, fmt.Errorf("no HLS source in playback response")
}
