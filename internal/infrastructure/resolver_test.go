package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stream-master-go/internal/domain"
)

func resolverConfig(baseURL string, retries int) *domain.ResolverConfig {
	return &domain.ResolverConfig{
		BaseURL:    baseURL,
		AccountID:  "12345",
		PolicyKey:  "BCpk-test",
		Origin:     "https://www.example.com",
		Timeout:    5 * time.Second,
		Retries:    retries,
		RetryDelay: time.Millisecond,
	}
}

func TestPlaybackResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/12345/videos/ref%3Aasset-7", r.URL.EscapedPath())
		assert.Equal(t, "application/json;pk=BCpk-test", r.Header.Get("Accept"))
		assert.Equal(t, "https://www.example.com", r.Header.Get("Origin"))

		w.Write([]byte(`{
			"description": "Episode seven",
			"poster": "https://img.example.com/ep7.jpg",
			"sources": [
				{"src": "https://cdn.example.com/ep7.mpd", "type": "application/dash+xml"},
				{"src": "https://cdn.example.com/ep7.m3u8", "type": "application/x-mpegURL"}
			]
		}`))
	}))
	defer server.Close()

	resolver := NewPlaybackResolver(resolverConfig(server.URL, 0), nil)
	source, err := resolver.Resolve(context.Background(), "asset-7")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/ep7.m3u8", source.ManifestURL)
	assert.Equal(t, "Episode seven", source.Description)
	assert.Equal(t, "https://img.example.com/ep7.jpg", source.Poster)
}

func TestPlaybackResolver_NoHLSSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sources": [{"src": "https://cdn.example.com/x.mp4", "type": "video/mp4"}]}`))
	}))
	defer server.Close()

	resolver := NewPlaybackResolver(resolverConfig(server.URL, 3), nil)
	_, err := resolver.Resolve(context.Background(), "asset-7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no HLS source")
}

func TestPlaybackResolver_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"sources": [{"src": "https://cdn.example.com/x.m3u8", "type": "application/x-mpegURL"}]}`))
	}))
	defer server.Close()

	resolver := NewPlaybackResolver(resolverConfig(server.URL, 3), nil)
	source, err := resolver.Resolve(context.Background(), "asset-7")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/x.m3u8", source.ManifestURL)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestPlaybackResolver_NoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewPlaybackResolver(resolverConfig(server.URL, 3), nil)
	_, err := resolver.Resolve(context.Background(), "asset-7")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestPlaybackResolver_Validation(t *testing.T) {
	resolver := NewPlaybackResolver(resolverConfig("http://unused", 0), nil)

	_, err := resolver.Resolve(context.Background(), "")
	assert.Error(t, err)

	unconfigured := NewPlaybackResolver(&domain.ResolverConfig{BaseURL: "http://unused"}, nil)
	_, err = unconfigured.Resolve(context.Background(), "asset-7")
	assert.Error(t, err)
}
