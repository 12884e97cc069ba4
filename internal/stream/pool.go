package stream

import (
	"net/http"
	"os"
	"regexp"
	"time"

	"media-gateway/internal/logging"
	"media-gateway/internal/metrics"
)

// hexID matches well-formed job ids. Pooled ids come straight from the
// caller, so anything else is rejected before touching disk or
// processes.
var hexID = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Pool observes a pooled transcode job until it finishes, the client
// gives up, or the soft timeout passes. Completion is delivered from
// the job's output file; a timeout answers 202 so the client can
// re-poll the same id while the job keeps running.
func (s *Streamer) Pool(w http.ResponseWriter, r *http.Request, info *Info) {
	rt := track(w)
	bid := info.BID

	if !hexID.MatchString(bid) {
		writeJSONError(rt, http.StatusForbidden, "Forbidden bid.")
		return
	}

	outputPath, ok := s.jobOutputPath(bid)
	if !ok {
		writeJSONError(rt, http.StatusForbidden, "Wrong path.")
		return
	}

	ctx := r.Context()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(s.softTimeout)
	defer timeout.Stop()

	// Finished jobs notify through their completion channel; for ids
	// with no entry yet it is nil, which blocks forever in the select
	// and leaves the re-checks to the ticker.
	finished := s.registry.Finished(bid)

	for {
		select {
		case <-ctx.Done():
			// Client went away mid-poll: kill whatever is running for
			// this id and drop the partial output.
			s.cancelJob("pool", bid, outputPath)
			return

		case <-timeout.C:
			writeJSON(rt, http.StatusAccepted, map[string]string{"status": "pending", "bid": bid})
			return

		case <-finished:
			// One-shot: a closed channel would fire on every pass, so
			// after the first notification re-checks ride the ticker.
			finished = nil

		case <-ticker.C:
			if status, ok := s.registry.Status(bid); !ok || status != StatusFinished {
				continue
			}
		}

		if _, err := os.Stat(outputPath); err != nil {
			logging.Debug("pool %s: finished but output file missing", bid)
			continue
		}

		// Only one of any concurrent polls may deliver and then remove
		// the file. Losing the claim means another request is already
		// streaming this job, so pending is the only honest answer
		// left; waiting out the timeout would pin the connection
		// against an id that is about to disappear.
		if !s.registry.Claim(bid) {
			writeJSON(rt, http.StatusAccepted, map[string]string{"status": "pending", "bid": bid})
			return
		}

		s.deliverFile(rt, "pool", bid, outputPath, info.Filename)
		return
	}
}

// cancelJob tears down a job on client disconnect: deregister, kill
// the process if one is live, remove the partial file.
func (s *Streamer) cancelJob(kind, id, outputPath string) {
	proc := s.registry.Process(id)
	if s.registry.Remove(id) {
		metrics.JobsCompleted.WithLabelValues(kind, "canceled").Inc()
	}
	proc.Terminate()
	removeFile(outputPath)
}

// deliverFile streams a finished job's output file to the client and
// runs the single cleanup (deregister + remove file) when the stream
// reaches any terminal state.
func (s *Streamer) deliverFile(rt *responseTracker, kind, id, path, filename string) {
	f, err := os.Open(path)
	if err != nil {
		logging.Error("job %s: cannot open output: %v", id, err)
		s.registry.Remove(id)
		removeFile(path)
		rt.fail(http.StatusInternalServerError, "Error converting.")
		return
	}

	cleanup := once(func() {
		if err := f.Close(); err != nil {
			logging.Warn("job %s: close output: %v", id, err)
		}
		s.registry.Remove(id)
		removeFile(path)
	})
	defer cleanup()

	rt.Header().Set("Content-Disposition", contentDisposition(filename))
	rt.Header().Set("Content-Type", "video/mp4")
	rt.WriteHeader(http.StatusOK)

	n, err := flushCopy(rt, f)
	metrics.BytesDelivered.WithLabelValues(kind).Add(float64(n))
	if err != nil {
		logging.Debug("job %s: delivery ended early after %d bytes: %v", id, n, err)
		return
	}

	metrics.JobsCompleted.WithLabelValues(kind, "finished").Inc()
}
