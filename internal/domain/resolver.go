package domain

import "context"

// StreamSource is the playback information resolved for one asset
type StreamSource struct {
	ManifestURL string `json:"url"`
	Description string `json:"description,omitempty"`
	Poster      string `json:"poster,omitempty"`
}

// StreamResolver resolves an asset id into an HLS manifest URL through the
// upstream playback API
type StreamResolver interface {
	Resolve(ctx context.Context, assetID string) (*StreamSource, error)
}
