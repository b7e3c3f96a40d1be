package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 60*time.Second, config.Download.FetchTimeout)
	assert.Equal(t, 2, config.Download.SegmentRetries)
	assert.Equal(t, "ffmpeg", config.Engine.FFmpegBinary)
	assert.Equal(t, "ffprobe", config.Engine.FFprobeBinary)
	assert.NotEmpty(t, config.Download.CompletedDir)
	assert.NotEmpty(t, config.History.DatabasePath)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
download:
  completed_dir: /tmp/stream-master/completed
  segment_retries: 5
engine:
  ffmpeg_binary: /opt/ffmpeg/bin/ffmpeg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/tmp/stream-master/completed", config.Download.CompletedDir)
	assert.Equal(t, 5, config.Download.SegmentRetries)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", config.Engine.FFmpegBinary)

	// Untouched keys keep their defaults
	assert.Equal(t, "ffprobe", config.Engine.FFprobeBinary)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "downloads"), expandPath("~/downloads"))
	assert.Equal(t, home+"/x", expandPath("$HOME/x"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
}
