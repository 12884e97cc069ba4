// Package stream is the delivery core of the gateway: given a
// resolved media descriptor it streams or transcodes the media to an
// HTTP client through one of five strategies.
//
//   - Passthrough (download / default): proxy an already-resolved
//     remote byte stream.
//   - Audio-only and video-only remux: pipe transcoder output straight
//     to the response, no intermediate storage.
//   - Pooled and live-render jobs: transcode to a temp file, tracked
//     in a shared registry, delivered via a polling contract with a
//     25-second soft timeout.
//
// Every strategy guarantees cleanup of processes and temp files on
// every termination path: success, fault, client disconnect, and
// timeout. Shutdown actions are single-fire regardless of how many
// triggers race.
package stream
