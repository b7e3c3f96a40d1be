package hls

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/grafov/m3u8"
)

// ParseMediaPlaylist extracts the ordered list of absolute segment URLs from
// a media playlist. Blank lines and # directives are skipped; relative URIs
// are resolved against the manifest's directory. Order is preserved: it
// determines playback order in the final file.
func ParseMediaPlaylist(manifest string, manifestURL string) ([]string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("manifest URL must be absolute: %q", manifestURL)
	}

	var segments []string
	for _, line := range strings.Split(manifest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		segments = append(segments, resolveURL(base, line))
	}

	return segments, nil
}

// resolveURL resolves a relative reference against a base URL. Absolute
// references pass through unchanged.
func resolveURL(base *url.URL, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return ref
	}
	return base.ResolveReference(refURL).String()
}

// IsMasterPlaylist reports whether the manifest is a multivariant playlist
// rather than a media playlist.
func IsMasterPlaylist(manifest string) bool {
	return strings.Contains(manifest, "#EXT-X-STREAM-INF")
}

// SelectVariant picks the highest-bandwidth rendition of a multivariant
// playlist and returns its absolute media-playlist URL.
func SelectVariant(manifest string, manifestURL string) (string, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}

	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(manifest), true)
	if err != nil {
		return "", fmt.Errorf("failed to decode master playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return "", fmt.Errorf("not a master playlist")
	}

	master := playlist.(*m3u8.MasterPlaylist)
	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	if best == nil {
		return "", fmt.Errorf("master playlist contains no variants")
	}

	return resolveURL(base, best.URI), nil
}
