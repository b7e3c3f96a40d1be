package app

import (
	"sync"

	"github.com/yourusername/stream-master-go/internal/domain"
)

// Tracker is the in-memory download session tracker. It owns the job
// snapshots the UI observes; the pipeline only reports updates through it
// and never holds a job reference after the job ends. Nothing is persisted:
// the mapping resets on process restart.
type Tracker struct {
	mu          sync.RWMutex
	jobs        map[string]*domain.Job
	order       []string
	subscribers map[chan []*domain.Job]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		jobs:        make(map[string]*domain.Job),
		subscribers: make(map[chan []*domain.Job]struct{}),
	}
}

// Register adds a new job in the queued state
func (t *Tracker) Register(job *domain.Job) {
	t.mu.Lock()
	clone := *job
	t.jobs[job.ID] = &clone
	t.order = append(t.order, job.ID)
	t.mu.Unlock()

	t.notify()
}

// Update applies mutate to the job with the given id. Terminal jobs are
// exclusive: once a job is completed or errored, no further update is ever
// applied to it and the unchanged snapshot is returned.
func (t *Tracker) Update(id string, mutate func(*domain.Job)) (*domain.Job, bool) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	if job.IsTerminal() {
		clone := *job
		t.mu.Unlock()
		return &clone, true
	}
	mutate(job)
	clone := *job
	t.mu.Unlock()

	t.notify()
	return &clone, true
}

// Get returns a snapshot of one job
func (t *Tracker) Get(id string) (*domain.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok {
		return nil, false
	}
	clone := *job
	return &clone, true
}

// List returns snapshots of all tracked jobs in registration order
func (t *Tracker) List() []*domain.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

// Remove deletes one job by id
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	_, ok := t.jobs[id]
	if ok {
		delete(t.jobs, id)
		for i, jobID := range t.order {
			if jobID == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
	t.mu.Unlock()

	if ok {
		t.notify()
	}
	return ok
}

// ClearCompleted removes exactly the jobs in the completed state. Errored,
// queued and in-flight jobs are left untouched. Calling it with nothing
// completed is a no-op.
func (t *Tracker) ClearCompleted() int {
	t.mu.Lock()
	removed := 0
	kept := t.order[:0]
	for _, id := range t.order {
		if job, ok := t.jobs[id]; ok && job.Status == domain.StatusCompleted {
			delete(t.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	t.mu.Unlock()

	if removed > 0 {
		t.notify()
	}
	return removed
}

// Subscribe registers a listener that receives a full job snapshot after
// every tracker mutation. The returned cancel function must be called to
// release the subscription. Slow consumers miss intermediate snapshots
// rather than blocking the pipeline.
func (t *Tracker) Subscribe() (<-chan []*domain.Job, func()) {
	ch := make(chan []*domain.Job, 64)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

// notify pushes the current snapshot to all subscribers
func (t *Tracker) notify() {
	t.mu.RLock()
	snapshot := t.snapshotLocked()
	for ch := range t.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	t.mu.RUnlock()
}

func (t *Tracker) snapshotLocked() []*domain.Job {
	snapshot := make([]*domain.Job, 0, len(t.order))
	for _, id := range t.order {
		if job, ok := t.jobs[id]; ok {
			clone := *job
			snapshot = append(snapshot, &clone)
		}
	}
	return snapshot
}
