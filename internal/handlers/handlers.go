package handlers

import (
	"media-gateway/internal/startup"
	"media-gateway/internal/stream"
)

// Verifier checks a signed stream capability and returns the resolved
// descriptor it covers. Token issuance and the signing scheme live
// outside the delivery core.
type Verifier interface {
	Verify(token, signature, expiry string) (*stream.Info, error)
}

// VerifyError carries the HTTP status a failed verification should
// produce.
type VerifyError struct {
	Status int
	Text   string
}

func (e *VerifyError) Error() string {
	return e.Text
}

// Handlers bundles the HTTP endpoints with their dependencies.
type Handlers struct {
	streamer *stream.Streamer
	verifier Verifier
	config   *startup.Config
}

// New creates the handler set.
func New(streamer *stream.Streamer, verifier Verifier, config *startup.Config) *Handlers {
	return &Handlers{
		streamer: streamer,
		verifier: verifier,
		config:   config,
	}
}
