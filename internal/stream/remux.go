package stream

import (
	"net/http"

	"media-gateway/internal/logging"
	"media-gateway/internal/metrics"
	"media-gateway/internal/transcoder"
)

// AudioOnly remuxes the source into the requested audio container,
// streamed directly from the transcoder's output pipe with no
// intermediate file.
func (s *Streamer) AudioOnly(w http.ResponseWriter, r *http.Request, info *Info) {
	rt := track(w)

	job := transcoder.AudioJob{
		Source:     info.URLs[0],
		Format:     info.AudioFormat,
		StreamCopy: info.Copy,
	}
	if info.Metadata != nil {
		job.Tags = info.Metadata.Tags
		job.Cover = info.Metadata.Cover
		job.EmbedCover = s.embedCoverArt
	}

	proc, err := s.tc.Start(s.tc.AudioRemuxArgs(job), true)
	if err != nil {
		logging.Error("audio remux: %v", err)
		rt.fail(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	rt.Header().Set("Connection", "keep-alive")
	rt.Header().Set("Content-Disposition", contentDisposition(info.Filename+"."+info.AudioFormat))

	s.pipeProcess(rt, r, proc, "audio")
}

// VideoOnly remuxes the source with stream-copy video, optionally
// dropping audio, applying per-service bitstream quirks. The container
// format comes from the filename extension.
func (s *Streamer) VideoOnly(w http.ResponseWriter, r *http.Request, info *Info) {
	rt := track(w)

	job := transcoder.VideoJob{
		Source:  info.URLs[0],
		Format:  formatFromFilename(info.Filename),
		Service: info.Service,
		Mute:    info.Mute || info.Type == TypeMute,
	}

	proc, err := s.tc.Start(s.tc.VideoRemuxArgs(job), true)
	if err != nil {
		logging.Error("video remux: %v", err)
		rt.fail(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	rt.Header().Set("Connection", "keep-alive")
	rt.Header().Set("Content-Disposition", contentDisposition(info.Filename))

	s.pipeProcess(rt, r, proc, "video")
}

// pipeProcess wires a piped transcoder process to the response. The
// first trigger among process exit, copy fault, or client disconnect
// runs the single shutdown: terminate the process, terminate the
// response.
func (s *Streamer) pipeProcess(rt *responseTracker, r *http.Request, proc *transcoder.Process, strategy string) {
	out := proc.Output()
	defer out.Close()

	shutdown := once(func() {
		proc.Terminate()
		rt.fail(http.StatusInternalServerError, "Internal Server Error")
	})
	defer shutdown()

	// A disconnected client stops the process rather than letting it
	// transcode into a dead pipe.
	go func() {
		select {
		case <-r.Context().Done():
			shutdown()
		case <-proc.Done():
		}
	}()

	n, copyErr := flushCopy(rt, out)
	metrics.BytesDelivered.WithLabelValues(strategy).Add(float64(n))

	if copyErr != nil {
		logging.Debug("%s remux: stream ended early after %d bytes: %v", strategy, n, copyErr)
		return
	}

	if err := proc.Wait(); err != nil {
		logging.Error("%s remux: process failed: %v", strategy, err)
		return
	}

	rt.finish()
}
