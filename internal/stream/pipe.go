package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"media-gateway/internal/logging"
)

// copyChunkSize is the buffer size for response copies. Media is
// flushed after every chunk so clients receive bytes incrementally.
const copyChunkSize = 64 * 1024

// once wraps fn so that any number of shutdown triggers (fault,
// disconnect, normal completion) collapse into a single call.
func once(fn func()) func() {
	var o sync.Once
	return func() { o.Do(fn) }
}

// responseTracker wraps an http.ResponseWriter and remembers whether
// anything was sent, so a late fault can still produce a status code
// when the response is untouched.
type responseTracker struct {
	http.ResponseWriter
	mu   sync.Mutex
	sent bool
}

func track(w http.ResponseWriter) *responseTracker {
	if rt, ok := w.(*responseTracker); ok {
		return rt
	}
	return &responseTracker{ResponseWriter: w}
}

func (rt *responseTracker) WriteHeader(code int) {
	rt.mu.Lock()
	rt.sent = true
	rt.mu.Unlock()
	rt.ResponseWriter.WriteHeader(code)
}

func (rt *responseTracker) Write(b []byte) (int, error) {
	rt.mu.Lock()
	rt.sent = true
	rt.mu.Unlock()
	return rt.ResponseWriter.Write(b)
}

func (rt *responseTracker) Flush() {
	if f, ok := rt.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Sent reports whether a status line or body bytes went out.
func (rt *responseTracker) Sent() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.sent
}

// fail sends an error body if nothing has been sent yet; otherwise the
// connection is simply left to close.
func (rt *responseTracker) fail(code int, text string) {
	if rt.Sent() {
		return
	}
	writeJSONError(rt, code, text)
}

// finish sends an empty 200 if the stream produced no bytes at all, so
// degenerate successes still get a terminal status.
func (rt *responseTracker) finish() {
	if rt.Sent() {
		return
	}
	rt.WriteHeader(http.StatusOK)
}

// flushCopy copies src to dst in fixed chunks, flushing after each
// write. It returns the byte count and the first error from either
// side; io.EOF from src is a normal end, not an error.
func flushCopy(dst http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, copyChunkSize)

	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, text string) {
	writeJSON(w, code, map[string]string{"status": "error", "text": text})
}

// contentDisposition formats an attachment header value for filename.
func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// removeFile deletes a temporary output file. A missing file is fine:
// cleanup may race a path that already ran.
func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove %s: %v", path, err)
	}
}
