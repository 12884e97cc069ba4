package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"media-gateway/internal/logging"
	"media-gateway/internal/metrics"
	"media-gateway/internal/transcoder"

	"github.com/google/uuid"
)

// renderJobID derives a fresh, unguessable job id. Unlike pooled jobs
// the id is never caller-supplied; every render request starts a new
// job.
func renderJobID(filename string) string {
	sum := sha256.Sum256([]byte(uuid.NewString() + filename))
	return hex.EncodeToString(sum[:])
}

// LiveRender muxes a separately-sourced video and audio track into one
// container. The transcoder writes to a file, not a pipe: both inputs
// have to be muxed together before the result is deliverable. The
// client either receives the file when the job finishes in time, or a
// 202 with the job id for later re-polling.
func (s *Streamer) LiveRender(w http.ResponseWriter, r *http.Request, info *Info) {
	rt := track(w)

	if len(info.URLs) != 2 {
		writeJSONError(rt, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id := renderJobID(info.Filename)
	outputPath, ok := s.jobOutputPath(id)
	if !ok {
		writeJSONError(rt, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	job := transcoder.RenderJob{
		VideoSource: info.URLs[0],
		AudioSource: info.URLs[1],
		Format:      formatFromFilename(info.Filename),
		OutputPath:  outputPath,
	}
	if info.Metadata != nil {
		job.Tags = info.Metadata.Tags
	}

	proc, err := s.tc.Start(s.tc.RenderArgs(job), false)
	if err != nil {
		logging.Error("render: %v", err)
		writeJSONError(rt, http.StatusInternalServerError, "process stopped.")
		return
	}

	if err := s.registry.Create(id, proc); err != nil {
		// Generated ids should never collide; treat it as a fault.
		logging.Error("render: %v", err)
		proc.Terminate()
		removeFile(outputPath)
		writeJSONError(rt, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	metrics.JobsCreated.WithLabelValues("render").Inc()

	// The wait goroutine owns the registry transition: a failed
	// process deregisters and drops the partial file whether or not
	// anyone still holds the request open.
	procErr := make(chan error, 1)
	go func() {
		err := proc.Wait()
		if err != nil {
			if s.registry.Remove(id) {
				metrics.JobsCompleted.WithLabelValues("render", "failed").Inc()
			}
			removeFile(outputPath)
		} else {
			s.registry.SetStatus(id, StatusFinished)
		}
		procErr <- err
	}()

	timeout := time.NewTimer(s.softTimeout)
	defer timeout.Stop()

	select {
	case <-r.Context().Done():
		s.cancelJob("render", id, outputPath)

	case <-timeout.C:
		// The job keeps running; the client can re-poll the pool
		// endpoint with this id once the file is ready.
		writeJSON(rt, http.StatusAccepted, map[string]string{"status": "pending", "bid": id})

	case err := <-procErr:
		if err != nil {
			rt.fail(http.StatusInternalServerError, "process stopped.")
			return
		}
		if s.registry.Claim(id) {
			s.deliverFile(rt, "render", id, outputPath, info.Filename)
		}
	}
}
