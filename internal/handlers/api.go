package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"media-gateway/internal/startup"
	"media-gateway/internal/stream"
)

const (
	tokenLength     = 21
	signatureLength = 64
	expiryLength    = 13
)

// Download proxies an arbitrary remote URL to the client.
// GET /api/download?url=...&filename=...
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	filename := r.URL.Query().Get("filename")

	if url == "" || filename == "" {
		writeJSONError(w, http.StatusBadRequest, "url and filename are required")
		return
	}

	h.streamer.DownloadVideo(w, r, &stream.Info{
		URLs:     []string{url},
		Filename: filename,
	})
}

// Stream verifies a signed capability and dispatches delivery.
// GET /api/stream?t=...&h=...&e=...[&p=1]
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("t")
	signature := q.Get("h")
	expiry := q.Get("e")

	if len(token) != tokenLength ||
		len(signature) != signatureLength || !isHex(signature) ||
		len(expiry) != expiryLength || !isDigits(expiry) {
		writeJSONError(w, http.StatusBadRequest, "stream token, hmac, or expiry timestamp is missing")
		return
	}

	info, err := h.verifier.Verify(token, signature, expiry)
	if err != nil {
		status := http.StatusForbidden
		var ve *VerifyError
		if errors.As(err, &ve) {
			status = ve.Status
		}
		writeJSONError(w, status, err.Error())
		return
	}

	// Probe requests only confirm the capability is usable; no media
	// bytes are streamed.
	if q.Get("p") != "" {
		writeJSONStatus(w, "continue")
		return
	}

	h.streamer.Dispatch(w, r, info)
}

// Pool polls a pooled transcode job.
// GET /api/pool?bid=...&filename=...
func (h *Handlers) Pool(w http.ResponseWriter, r *http.Request) {
	bid := r.URL.Query().Get("bid")
	filename := r.URL.Query().Get("filename")

	if bid == "" || filename == "" {
		writeJSONError(w, http.StatusBadRequest, "bid and filename are required")
		return
	}

	h.streamer.Dispatch(w, r, &stream.Info{
		Type:     stream.TypePool,
		BID:      bid,
		Filename: filename,
	})
}

// ServerInfo reports gateway identity and build metadata.
// GET /api/serverInfo
func (h *Handlers) ServerInfo(w http.ResponseWriter, _ *http.Request) {
	cors := 0
	if h.config.CORSOpen {
		cors = 1
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"version":   startup.Version,
		"commit":    startup.Commit,
		"branch":    startup.Branch,
		"name":      h.config.APIName,
		"url":       h.config.APIURL,
		"cors":      cors,
		"startTime": strconv.FormatInt(h.config.StartTime.UnixMilli(), 10),
	})
}

// Status is a bare liveness probe.
// GET /api/status
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Unknown answers any unrecognized /api/<type> path.
func (h *Handlers) Unknown(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusBadRequest, "unknown response type")
}
