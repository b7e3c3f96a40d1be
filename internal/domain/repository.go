package domain

import "time"

// HistoryRecord is the persisted trace of a finished job. The live session
// tracker stays in memory; only terminal outcomes are written to history.
type HistoryRecord struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	EpisodeID    string    `json:"episode_id,omitempty"`
	AssetID      string    `json:"asset_id,omitempty"`
	ManifestURL  string    `json:"manifest_url"`
	Filename     string    `json:"filename" gorm:"not null"`
	Status       JobStatus `json:"status" gorm:"not null;index"`
	ErrorMessage string    `json:"error_message,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	OutputBytes  int64     `json:"output_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// HistoryFromJob builds a history record from a terminal job
func HistoryFromJob(job *Job) *HistoryRecord {
	finished := time.Now()
	if job.CompletedAt != nil {
		finished = *job.CompletedAt
	}
	return &HistoryRecord{
		ID:           job.ID,
		EpisodeID:    job.EpisodeID,
		AssetID:      job.AssetID,
		ManifestURL:  job.ManifestURL,
		Filename:     job.Filename,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
		FilePath:     job.FilePath,
		OutputBytes:  job.OutputBytes,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   finished,
	}
}

// HistoryRepository defines the interface for download history persistence
type HistoryRepository interface {
	// Record stores a finished job
	Record(record *HistoryRecord) error

	// FindByID finds a record by job id
	FindByID(id string) (*HistoryRecord, error)

	// FindRecent returns the most recent records, newest first
	FindRecent(limit int) ([]*HistoryRecord, error)

	// FindByStatus returns records with the given terminal status
	FindByStatus(status JobStatus) ([]*HistoryRecord, error)

	// GetStats returns aggregate download statistics
	GetStats() (*HistoryStats, error)
}

// HistoryStats represents aggregate download statistics
type HistoryStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	TotalBytes int64 `json:"total_bytes"`
}
