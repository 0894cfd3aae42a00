// Package jobs tracks long-running background work (feature estimation,
// set curation) in one explicit registry with a single slot per concern.
// Handlers poll the snapshot instead of catching errors across goroutines.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Slot names for the known concerns.
const (
	SlotEstimation = "estimation"
	SlotCuration   = "curation"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
	StatusError     Status = "error"
)

var ErrAlreadyRunning = errors.New("jobs: a job is already running in this slot")

// Progress is the observable counter set for a running job.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Enriched  int `json:"enriched"`
	Errors    int `json:"errors"`
}

// Job is one unit of background work. The owning goroutine updates it;
// everyone else reads snapshots through the registry.
type Job struct {
	mu         sync.Mutex
	id         string
	slot       string
	status     Status
	progress   Progress
	errMessage string
	cancel     bool
	startedAt  time.Time
	endedAt    time.Time
}

// Snapshot is the read-only view handed to polling callers.
type Snapshot struct {
	ID        string     `json:"id"`
	Slot      string     `json:"slot"`
	Status    Status     `json:"status"`
	Progress  Progress   `json:"progress"`
	Error     string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (j *Job) ID() string { return j.id }

// SetTotal fixes the expected workload before processing starts.
func (j *Job) SetTotal(total int) {
	j.mu.Lock()
	j.progress.Total = total
	j.mu.Unlock()
}

// Advance bumps the processed counter plus enrichment/error tallies.
func (j *Job) Advance(processed, enriched, errs int) {
	j.mu.Lock()
	j.progress.Processed += processed
	j.progress.Enriched += enriched
	j.progress.Errors += errs
	j.mu.Unlock()
}

// RequestCancel flips the cooperative cancellation flag. The job keeps
// running until it next checks Cancelled (between batches, never mid-request).
func (j *Job) RequestCancel() {
	j.mu.Lock()
	j.cancel = true
	j.mu.Unlock()
}

func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancel
}

// Complete marks the job finished. If cancellation was requested the job
// lands in cancelled rather than complete.
func (j *Job) Complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel {
		j.status = StatusCancelled
	} else {
		j.status = StatusComplete
	}
	j.endedAt = time.Now()
}

// Fail records a job-level failure as observable state, not a panic.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusError
	if err != nil {
		j.errMessage = err.Error()
	}
	j.endedAt = time.Now()
}

func (j *Job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := Snapshot{
		ID:        j.id,
		Slot:      j.slot,
		Status:    j.status,
		Progress:  j.progress,
		Error:     j.errMessage,
		StartedAt: j.startedAt,
	}
	if !j.endedAt.IsZero() {
		ended := j.endedAt
		s.EndedAt = &ended
	}
	return s
}

// Registry holds the latest job per slot.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*Job)}
}

// Begin claims a slot. It fails with ErrAlreadyRunning while the slot's
// current job is still running; finished jobs are replaced.
func (r *Registry) Begin(slot string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.slots[slot]; ok {
		if cur.snapshot().Status == StatusRunning {
			return nil, ErrAlreadyRunning
		}
	}

	job := &Job{
		id:        uuid.NewString(),
		slot:      slot,
		status:    StatusRunning,
		startedAt: time.Now(),
	}
	r.slots[slot] = job
	return job, nil
}

// Current returns the latest snapshot for a slot, if any job ever ran there.
func (r *Registry) Current(slot string) (Snapshot, bool) {
	r.mu.Lock()
	job, ok := r.slots[slot]
	r.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return job.snapshot(), true
}

// Cancel requests cancellation of the running job in a slot.
func (r *Registry) Cancel(slot string) bool {
	r.mu.Lock()
	job, ok := r.slots[slot]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if job.snapshot().Status != StatusRunning {
		return false
	}
	job.RequestCancel()
	return true
}
