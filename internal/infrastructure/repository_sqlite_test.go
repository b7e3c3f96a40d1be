package infrastructure

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stream-master-go/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteHistoryRepository {
	t.Helper()
	repo, err := NewSQLiteHistoryRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRecord(id string, status domain.JobStatus, bytes int64, finished time.Time) *domain.HistoryRecord {
	return &domain.HistoryRecord{
		ID:          id,
		ManifestURL: "https://cdn.example.com/v/p.m3u8",
		Filename:    id + ".mp4",
		Status:      status,
		OutputBytes: bytes,
		CreatedAt:   finished.Add(-time.Minute),
		FinishedAt:  finished,
	}
}

func TestSQLiteHistoryRepository_RecordAndFind(t *testing.T) {
	repo := newTestRepo(t)

	record := newRecord("job-1", domain.StatusCompleted, 450, time.Now())
	require.NoError(t, repo.Record(record))

	got, err := repo.FindByID("job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1.mp4", got.Filename)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, int64(450), got.OutputBytes)

	_, err = repo.FindByID("missing")
	assert.Error(t, err)
}

func TestSQLiteHistoryRepository_FindRecent(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now()
	require.NoError(t, repo.Record(newRecord("old", domain.StatusCompleted, 1, base.Add(-2*time.Hour))))
	require.NoError(t, repo.Record(newRecord("new", domain.StatusCompleted, 2, base)))
	require.NoError(t, repo.Record(newRecord("mid", domain.StatusError, 0, base.Add(-time.Hour))))

	records, err := repo.FindRecent(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "mid", records[1].ID)
}

func TestSQLiteHistoryRepository_FindByStatus(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Record(newRecord("a", domain.StatusCompleted, 1, time.Now())))
	require.NoError(t, repo.Record(newRecord("b", domain.StatusError, 0, time.Now())))

	failed, err := repo.FindByStatus(domain.StatusError)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b", failed[0].ID)
}

func TestSQLiteHistoryRepository_GetStats(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, int64(0), stats.TotalBytes)

	require.NoError(t, repo.Record(newRecord("a", domain.StatusCompleted, 100, time.Now())))
	require.NoError(t, repo.Record(newRecord("b", domain.StatusCompleted, 250, time.Now())))
	require.NoError(t, repo.Record(newRecord("c", domain.StatusError, 0, time.Now())))

	stats, err = repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(350), stats.TotalBytes)
}
