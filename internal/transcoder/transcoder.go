package transcoder

import (
	"runtime"
	"sync"
	"time"
)

// DefaultTerminationGrace is how long a process gets to exit after a
// graceful termination request before it is force-killed.
const DefaultTerminationGrace = 5 * time.Second

// Transcoder spawns and tracks external ffmpeg processes.
type Transcoder struct {
	ffmpegPath string
	threads    int
	grace      time.Duration

	processMu sync.Mutex
	processes map[*Process]struct{}
}

// New creates a new Transcoder instance. An empty ffmpegPath falls back
// to "ffmpeg" on PATH; threads <= 0 derives the thread count from the
// number of CPUs.
func New(ffmpegPath string, threads int) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return &Transcoder{
		ffmpegPath: ffmpegPath,
		threads:    threads,
		grace:      DefaultTerminationGrace,
		processes:  make(map[*Process]struct{}),
	}
}

// Threads returns the -threads value passed to spawned processes.
func (t *Transcoder) Threads() int {
	return t.threads
}

// SetTerminationGrace overrides the graceful-termination window.
func (t *Transcoder) SetTerminationGrace(d time.Duration) {
	t.grace = d
}

func (t *Transcoder) track(p *Process) {
	t.processMu.Lock()
	t.processes[p] = struct{}{}
	t.processMu.Unlock()
}

func (t *Transcoder) untrack(p *Process) {
	t.processMu.Lock()
	delete(t.processes, p)
	t.processMu.Unlock()
}

// Cleanup requests termination of all live processes. Used during
// gateway shutdown.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	procs := make([]*Process, 0, len(t.processes))
	for p := range t.processes {
		procs = append(procs, p)
	}
	t.processMu.Unlock()

	for _, p := range procs {
		p.Terminate()
	}
}
