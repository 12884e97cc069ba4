// Package transcoder manages external FFmpeg processes.
//
// It covers two concerns:
//   - Argument construction: per-format codec bundles, metadata tag
//     expansion, per-service bitstream filters, and the container
//     naming quirks FFmpeg expects.
//   - Process lifecycle: spawning with piped or file output, and an
//     escalating termination protocol (graceful request, then a forced
//     kill after a fixed grace window).
//
// FFmpeg must be installed; its path is configurable for tests and
// nonstandard installs.
package transcoder
