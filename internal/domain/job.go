package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a download job
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusConverting  JobStatus = "converting"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
)

// DownloadRequest identifies one conversion job. It is immutable and
// consumed exactly once by the pipeline.
type DownloadRequest struct {
	EpisodeID   string `json:"episode_id"`
	AssetID     string `json:"asset_id"`
	ManifestURL string `json:"manifest_url"`
	Filename    string `json:"filename"`
}

// Job tracks one in-flight or finished download/convert job
type Job struct {
	ID           string     `json:"id"`
	EpisodeID    string     `json:"episode_id,omitempty"`
	AssetID      string     `json:"asset_id,omitempty"`
	ManifestURL  string     `json:"manifest_url"`
	Filename     string     `json:"filename"`
	Progress     int        `json:"progress"`
	Status       JobStatus  `json:"status"`
	ErrorMessage string     `json:"error,omitempty"`
	FilePath     string     `json:"file_path,omitempty"`
	OutputBytes  int64      `json:"output_bytes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a new job in the queued state
func NewJob(req DownloadRequest) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.New().String(),
		EpisodeID:   req.EpisodeID,
		AssetID:     req.AssetID,
		ManifestURL: req.ManifestURL,
		Filename:    SanitizeFilename(req.Filename),
		Progress:    0,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkDownloading marks the job as downloading segments
func (j *Job) MarkDownloading() {
	j.Status = StatusDownloading
	j.Progress = 0
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkConverting marks the job as converting. Progress restarts at zero:
// the conversion phase reports its own 0-100 scale.
func (j *Job) MarkConverting() {
	j.Status = StatusConverting
	j.Progress = 0
	j.UpdatedAt = time.Now()
}

// MarkCompleted marks the job as completed with the delivered file
func (j *Job) MarkCompleted(filePath string, outputBytes int64) {
	j.Status = StatusCompleted
	j.Progress = 100
	j.FilePath = filePath
	j.OutputBytes = outputBytes
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed
func (j *Job) MarkFailed(err error) {
	j.Status = StatusError
	j.ErrorMessage = err.Error()
	j.UpdatedAt = time.Now()
}

// SetProgress updates the progress within the current phase. Progress never
// moves backwards inside a phase.
func (j *Job) SetProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress < j.Progress {
		return
	}
	j.Progress = progress
	j.UpdatedAt = time.Now()
}

// IsTerminal checks if the job is in a terminal state. Terminal jobs accept
// no further status or progress updates.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// IsActive checks if the job is currently being processed
func (j *Job) IsActive() bool {
	return j.Status == StatusDownloading || j.Status == StatusConverting
}

// ValidStatus checks if a status value is one of the known states
func ValidStatus(status JobStatus) bool {
	switch status {
	case StatusQueued, StatusDownloading, StatusConverting, StatusCompleted, StatusError:
		return true
	}
	return false
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeFilename strips characters that are unsafe in filenames and
// ensures an .mp4 extension
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		name = "download"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".mp4") {
		name += ".mp4"
	}
	return name
}
