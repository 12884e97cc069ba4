// Package handlers implements the gateway's HTTP endpoints.
//
// The delivery endpoints (/api/download, /api/stream, /api/pool) are
// thin adapters: they validate request shape, consult the capability
// verifier where one is required, and hand a stream.Info to the
// dispatcher. Authorization decisions belong to the verifier; the
// dispatcher trusts its caller.
package handlers
