package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJob(t *testing.T) {
	req := DownloadRequest{
		EpisodeID:   "ep-42",
		AssetID:     "asset-7",
		ManifestURL: "https://cdn.example.com/v/playlist.m3u8",
		Filename:    "Episode 42.mp4",
	}

	job := NewJob(req)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "ep-42", job.EpisodeID)
	assert.Equal(t, "asset-7", job.AssetID)
	assert.Equal(t, req.ManifestURL, job.ManifestURL)
	assert.Equal(t, "Episode_42.mp4", job.Filename)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(DownloadRequest{Filename: "x.mp4", ManifestURL: "https://cdn/x.m3u8"})

	job.MarkDownloading()
	assert.Equal(t, StatusDownloading, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.SetProgress(50)
	job.SetProgress(100)
	assert.Equal(t, 100, job.Progress)

	// Conversion phase restarts progress at zero
	job.MarkConverting()
	assert.Equal(t, StatusConverting, job.Status)
	assert.Equal(t, 0, job.Progress)

	job.SetProgress(80)
	job.MarkCompleted("/out/x.mp4", 450)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "/out/x.mp4", job.FilePath)
	assert.Equal(t, int64(450), job.OutputBytes)
	assert.NotNil(t, job.CompletedAt)
}

func TestJob_MarkFailed(t *testing.T) {
	job := NewJob(DownloadRequest{Filename: "x.mp4"})
	job.MarkDownloading()

	job.MarkFailed(errors.New("failed to fetch segment 2/3"))

	assert.Equal(t, StatusError, job.Status)
	assert.Equal(t, "failed to fetch segment 2/3", job.ErrorMessage)
	assert.True(t, job.IsTerminal())
}

func TestJob_SetProgress_Monotonic(t *testing.T) {
	job := NewJob(DownloadRequest{Filename: "x.mp4"})
	job.MarkDownloading()

	job.SetProgress(60)
	job.SetProgress(40)
	assert.Equal(t, 60, job.Progress, "progress must never move backwards within a phase")

	job.SetProgress(150)
	assert.Equal(t, 100, job.Progress)

	job.SetProgress(-5)
	assert.Equal(t, 100, job.Progress)
}

func TestJob_IsTerminal(t *testing.T) {
	job := NewJob(DownloadRequest{Filename: "x.mp4"})
	assert.False(t, job.IsTerminal())

	job.MarkDownloading()
	assert.False(t, job.IsTerminal())
	assert.True(t, job.IsActive())

	job.MarkCompleted("/out/x.mp4", 1)
	assert.True(t, job.IsTerminal())
	assert.False(t, job.IsActive())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "episode.mp4", "episode.mp4"},
		{"spaces collapse", "My  Great Episode.mp4", "My_Great_Episode.mp4"},
		{"unsafe chars stripped", "a/b\\c:d*e?.mp4", "abcde.mp4"},
		{"extension added", "episode", "episode.mp4"},
		{"empty", "", "download.mp4"},
		{"only unsafe", "///", "download.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusQueued))
	assert.True(t, ValidStatus(StatusError))
	assert.False(t, ValidStatus(JobStatus("paused")))
}

func TestHistoryFromJob(t *testing.T) {
	job := NewJob(DownloadRequest{EpisodeID: "ep", AssetID: "as", ManifestURL: "https://cdn/x.m3u8", Filename: "x.mp4"})
	job.MarkDownloading()
	job.MarkConverting()
	job.MarkCompleted("/out/x.mp4", 450)

	record := HistoryFromJob(job)

	assert.Equal(t, job.ID, record.ID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, "/out/x.mp4", record.FilePath)
	assert.Equal(t, int64(450), record.OutputBytes)
	assert.Equal(t, *job.CompletedAt, record.FinishedAt)
}
