package stream

import (
	"fmt"
	"sync"

	"media-gateway/internal/metrics"
	"media-gateway/internal/transcoder"
)

// Status is the lifecycle state of a background transcode job.
type Status int

const (
	// StatusPending means the job's process is still producing output.
	StatusPending Status = iota
	// StatusFinished means the process exited successfully and the
	// output file is ready for delivery.
	StatusFinished
)

type job struct {
	status  Status
	proc    *transcoder.Process
	claimed bool

	// done is closed when the job reaches StatusFinished so waiters
	// don't have to rely on the polling interval.
	done chan struct{}
}

// Registry tracks background transcode jobs by id. It is the only
// state shared across concurrent requests; every operation takes the
// registry lock. A job id with no entry is implicitly "not started".
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*job)}
}

// Create registers a pending job owning proc. At most one job may
// exist per id; a second Create for a live id is an error.
func (r *Registry) Create(id string, proc *transcoder.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; exists {
		return fmt.Errorf("job %s already registered", id)
	}

	r.jobs[id] = &job{
		status: StatusPending,
		proc:   proc,
		done:   make(chan struct{}),
	}
	metrics.JobsActive.Inc()
	return nil
}

// Status returns the job's status and whether the job exists.
func (r *Registry) Status(id string) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return StatusPending, false
	}
	return j.status, true
}

// Process returns the live process handle for id, or nil.
func (r *Registry) Process(id string) *transcoder.Process {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		return j.proc
	}
	return nil
}

// SetStatus updates the job's status. Reaching StatusFinished notifies
// all waiters.
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return
	}
	if j.status != StatusFinished && status == StatusFinished {
		close(j.done)
	}
	j.status = status
}

// Finished returns a channel closed when the job reaches
// StatusFinished, or nil if the job does not exist. A nil channel
// blocks forever in a select, which is exactly what a caller polling
// for a not-yet-started id wants.
func (r *Registry) Finished(id string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[id]; ok {
		return j.done
	}
	return nil
}

// Claim marks a finished job as being delivered and reports whether
// the caller won the claim. Only the winner may open and later remove
// the output file; concurrent polls that lose keep waiting.
func (r *Registry) Claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || j.status != StatusFinished || j.claimed {
		return false
	}
	j.claimed = true
	return true
}

// Remove deregisters the job and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	metrics.JobsActive.Dec()
	return true
}

// IDs returns the ids of all tracked jobs.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
