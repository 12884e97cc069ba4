package stream

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"media-gateway/internal/logging"
	"media-gateway/internal/transcoder"
)

const (
	genericUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

	// maxRedirects bounds outbound fetches; resolved media URLs can
	// hop through several CDN redirects but not sixteen.
	maxRedirects = 16

	defaultPollInterval = time.Second
	defaultSoftTimeout  = 25 * time.Second
)

// Streamer owns the delivery strategies. It holds the only pieces of
// state that outlive a request: the job registry and the temp
// directory for job output files.
type Streamer struct {
	tc       *transcoder.Transcoder
	registry *Registry
	tmpDir   string
	client   *http.Client

	embedCoverArt bool

	pollInterval time.Duration
	softTimeout  time.Duration
}

// New creates a Streamer. tmpDir must be an absolute path; job output
// paths are contained within it.
func New(tc *transcoder.Transcoder, registry *Registry, tmpDir string) *Streamer {
	return &Streamer{
		tc:       tc,
		registry: registry,
		tmpDir:   filepath.Clean(tmpDir),
		client: &http.Client{
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		pollInterval: defaultPollInterval,
		softTimeout:  defaultSoftTimeout,
	}
}

// Registry returns the job registry backing pooled and render jobs.
func (s *Streamer) Registry() *Registry {
	return s.registry
}

// SetEmbedCoverArt toggles cover-art muxing for audio remuxes.
func (s *Streamer) SetEmbedCoverArt(enabled bool) {
	s.embedCoverArt = enabled
}

// SetTimings overrides the poll interval and soft timeout used by job
// strategies.
func (s *Streamer) SetTimings(pollInterval, softTimeout time.Duration) {
	s.pollInterval = pollInterval
	s.softTimeout = softTimeout
}

// Dispatch selects exactly one delivery strategy for info and runs it.
// Audio-only delivery overrides the type tag for everything except
// bridge streams. Any panic out of a strategy is converted into a
// generic internal error instead of reaching the transport layer.
func (s *Streamer) Dispatch(w http.ResponseWriter, r *http.Request, info *Info) {
	rt := track(w)

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("stream dispatch fault: %v", rec)
			rt.fail(http.StatusInternalServerError, "Internal Server Error")
		}
	}()

	if info.IsAudioOnly && info.Type != TypeBridge {
		s.AudioOnly(rt, r, info)
		return
	}

	switch info.Type {
	case TypePool:
		s.Pool(rt, r, info)
	case TypeRender:
		s.LiveRender(rt, r, info)
	case TypeVideoOnly, TypeMute:
		s.VideoOnly(rt, r, info)
	default:
		s.Default(rt, r, info)
	}
}

// jobOutputPath computes the output file path for a job id and checks
// that it resolves strictly inside the temp directory. Pooled ids are
// caller-supplied, so a traversal escape here must be treated as
// hostile.
func (s *Streamer) jobOutputPath(id string) (string, bool) {
	path := filepath.Join(s.tmpDir, id+".mp4")

	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(resolved, s.tmpDir+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

// Shutdown tears down all tracked jobs: processes are terminated and
// their output files removed. Used when the gateway stops.
func (s *Streamer) Shutdown() {
	for _, id := range s.registry.IDs() {
		s.registry.Process(id).Terminate()
		s.registry.Remove(id)
		if path, ok := s.jobOutputPath(id); ok {
			removeFile(path)
		}
	}
}
