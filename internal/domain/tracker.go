package domain

// JobTracker is the session-scoped view of download jobs the UI observes.
// It holds no persistence: the mapping is in-memory and lost on restart.
type JobTracker interface {
	// Register adds a new job in the queued state
	Register(job *Job)

	// Update applies mutate to the job with the given id and returns the
	// updated snapshot. Updates to terminal jobs are discarded and the
	// unchanged snapshot is returned.
	Update(id string, mutate func(*Job)) (*Job, bool)

	// Get returns a snapshot of one job
	Get(id string) (*Job, bool)

	// List returns snapshots of all tracked jobs, oldest first
	List() []*Job

	// Remove deletes one job by id
	Remove(id string) bool

	// ClearCompleted removes all jobs in the completed state and returns
	// how many were removed
	ClearCompleted() int
}
