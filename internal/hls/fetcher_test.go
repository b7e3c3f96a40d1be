package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(retries int) *Fetcher {
	return NewFetcher(5*time.Second, retries, time.Millisecond, nil)
}

func TestFetchManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#EXTM3U\nseg001.ts\n"))
	}))
	defer server.Close()

	manifest, err := newTestFetcher(0).FetchManifest(context.Background(), server.URL+"/playlist.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\nseg001.ts\n", manifest)
}

func TestFetchManifest_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchManifest(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch manifest")
}

func TestFetchSegments_OrderAndProgress(t *testing.T) {
	payloads := map[string][]byte{
		"/seg1.ts": make([]byte, 100),
		"/seg2.ts": make([]byte, 150),
		"/seg3.ts": make([]byte, 200),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	urls := []string{server.URL + "/seg1.ts", server.URL + "/seg2.ts", server.URL + "/seg3.ts"}

	var progress []int
	segments, err := newTestFetcher(0).FetchSegments(context.Background(), urls, func(percent int) {
		progress = append(progress, percent)
	})
	require.NoError(t, err)

	require.Len(t, segments, 3)
	assert.Len(t, segments[0], 100)
	assert.Len(t, segments[1], 150)
	assert.Len(t, segments[2], 200)

	// Cumulative, non-decreasing, ends at 100
	assert.Equal(t, []int{33, 66, 100}, progress)
}

func TestFetchSegments_FailureIdentifiesSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/seg2.ts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("data"))
	}))
	defer server.Close()

	urls := []string{server.URL + "/seg1.ts", server.URL + "/seg2.ts", server.URL + "/seg3.ts"}

	_, err := newTestFetcher(0).FetchSegments(context.Background(), urls, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 2/3")
}

func TestFetchSegments_Empty(t *testing.T) {
	_, err := newTestFetcher(0).FetchSegments(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no segments")
}

func TestFetchSegments_RetriesTransientFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("data"))
	}))
	defer server.Close()

	segments, err := newTestFetcher(2).FetchSegments(context.Background(), []string{server.URL + "/seg1.ts"}, nil)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, []byte("data"), segments[0])
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestFetchSegments_NoRetryWhenDisabled(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchSegments(context.Background(), []string{server.URL + "/seg1.ts"}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestFetchSegments_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(0).FetchSegments(ctx, []string{server.URL + "/seg1.ts"}, nil)
	assert.Error(t, err)
}
