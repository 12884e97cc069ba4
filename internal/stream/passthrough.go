package stream

import (
	"context"
	"net/http"

	"media-gateway/internal/logging"
	"media-gateway/internal/metrics"
)

// DownloadVideo proxies an arbitrary caller-specified remote URL
// byte-for-byte, with the filename the caller asked for.
func (s *Streamer) DownloadVideo(w http.ResponseWriter, r *http.Request, info *Info) {
	s.proxy(track(w), r, info.URLs[0], info.Filename, "download")
}

// Default proxies the resolved source URL without transcoding. For
// audio-only deliveries that ended up here the announced filename
// carries the audio container extension.
func (s *Streamer) Default(w http.ResponseWriter, r *http.Request, info *Info) {
	filename := info.Filename
	if info.IsAudioOnly {
		filename = info.Filename + "." + info.AudioFormat
	}
	s.proxy(track(w), r, info.URLs[0], filename, "default")
}

// proxy opens the remote source and pipes it to the response, copying
// the upstream content headers. A fetch fault aborts the outbound
// request and terminates the response; this layer never retries.
func (s *Streamer) proxy(rt *responseTracker, r *http.Request, url, filename, strategy string) {
	ctx, cancel := context.WithCancel(r.Context())

	shutdown := once(func() {
		cancel()
		rt.fail(http.StatusInternalServerError, "Internal Server Error")
	})
	defer shutdown()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logging.Debug("proxy: bad source url %q: %v", url, err)
		return
	}
	req.Header.Set("User-Agent", genericUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logging.Debug("proxy: fetch failed: %v", err)
		return
	}
	defer resp.Body.Close()

	rt.Header().Set("Content-Disposition", contentDisposition(filename))
	rt.Header().Set("Connection", "keep-alive")
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		rt.Header().Set("Content-Type", ct)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		rt.Header().Set("Content-Length", cl)
	}

	n, err := flushCopy(rt, resp.Body)
	metrics.BytesDelivered.WithLabelValues(strategy).Add(float64(n))
	if err != nil {
		logging.Debug("proxy: stream ended early after %d bytes: %v", n, err)
		return
	}

	rt.finish()
}
