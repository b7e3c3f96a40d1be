package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/stream-master-go/internal/domain"
)

func newTrackedJob(t *Tracker, filename string) *domain.Job {
	job := domain.NewJob(domain.DownloadRequest{
		ManifestURL: "https://cdn.example.com/v/p.m3u8",
		Filename:    filename,
	})
	t.Register(job)
	return job
}

func TestTracker_RegisterAndGet(t *testing.T) {
	tracker := NewTracker()
	job := newTrackedJob(tracker, "a.mp4")

	got, ok := tracker.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.StatusQueued, got.Status)

	_, ok = tracker.Get("missing")
	assert.False(t, ok)
}

func TestTracker_GetReturnsSnapshot(t *testing.T) {
	tracker := NewTracker()
	job := newTrackedJob(tracker, "a.mp4")

	got, _ := tracker.Get(job.ID)
	got.Status = domain.StatusError

	again, _ := tracker.Get(job.ID)
	assert.Equal(t, domain.StatusQueued, again.Status, "mutating a snapshot must not affect tracked state")
}

func TestTracker_Update(t *testing.T) {
	tracker := NewTracker()
	job := newTrackedJob(tracker, "a.mp4")

	updated, ok := tracker.Update(job.ID, func(j *domain.Job) {
		j.MarkDownloading()
		j.SetProgress(40)
	})
	require.True(t, ok)
	assert.Equal(t, domain.StatusDownloading, updated.Status)
	assert.Equal(t, 40, updated.Progress)
}

func TestTracker_TerminalStateExclusive(t *testing.T) {
	tracker := NewTracker()
	job := newTrackedJob(tracker, "a.mp4")

	tracker.Update(job.ID, func(j *domain.Job) { j.MarkFailed(errors.New("boom")) })

	// Updates after a terminal state must be discarded
	got, ok := tracker.Update(job.ID, func(j *domain.Job) {
		j.Status = domain.StatusCompleted
		j.Progress = 100
	})
	require.True(t, ok)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)
}

func TestTracker_ListOrder(t *testing.T) {
	tracker := NewTracker()
	first := newTrackedJob(tracker, "a.mp4")
	second := newTrackedJob(tracker, "b.mp4")

	jobs := tracker.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
}

func TestTracker_Remove(t *testing.T) {
	tracker := NewTracker()
	job := newTrackedJob(tracker, "a.mp4")

	assert.True(t, tracker.Remove(job.ID))
	assert.False(t, tracker.Remove(job.ID))
	assert.Empty(t, tracker.List())
}

func TestTracker_ClearCompleted(t *testing.T) {
	tracker := NewTracker()
	done := newTrackedJob(tracker, "done.mp4")
	failed := newTrackedJob(tracker, "failed.mp4")
	pending := newTrackedJob(tracker, "pending.mp4")

	tracker.Update(done.ID, func(j *domain.Job) { j.MarkCompleted("/out/done.mp4", 1) })
	tracker.Update(failed.ID, func(j *domain.Job) { j.MarkFailed(errors.New("x")) })

	assert.Equal(t, 1, tracker.ClearCompleted())

	jobs := tracker.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, failed.ID, jobs[0].ID)
	assert.Equal(t, pending.ID, jobs[1].ID)

	// Idempotent: nothing completed now
	assert.Equal(t, 0, tracker.ClearCompleted())
	assert.Len(t, tracker.List(), 2)
}

func TestTracker_Subscribe(t *testing.T) {
	tracker := NewTracker()
	ch, cancel := tracker.Subscribe()
	defer cancel()

	job := newTrackedJob(tracker, "a.mp4")

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		assert.Equal(t, job.ID, snapshot[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after registration")
	}

	cancel()
	// Cancelling twice must not panic
	cancel()
}
