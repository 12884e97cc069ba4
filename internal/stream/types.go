package stream

import (
	"path/filepath"
	"strings"
)

// Stream type tags, as encoded by the upstream resolver.
const (
	TypePool      = "pool"
	TypeRender    = "render"
	TypeVideoOnly = "videoM3U8"
	TypeMute      = "mute"
	TypeBridge    = "bridge"
)

// Metadata carries optional tags and a cover-art reference for remuxed
// audio.
type Metadata struct {
	Tags  map[string]string `json:"tags,omitempty"`
	Cover string            `json:"cover,omitempty"`
}

// Info describes a resolved media location and how to deliver it. It
// is constructed by the caller (the resolution/auth layer) and never
// mutated by the delivery core.
type Info struct {
	Type string `json:"type"`

	// URLs holds a single source, or a video+audio pair for render
	// streams.
	URLs []string `json:"urls"`

	// Filename is used for the Content-Disposition header; its
	// extension implies the container format where one is needed.
	Filename string `json:"filename"`

	IsAudioOnly bool      `json:"isAudioOnly,omitempty"`
	AudioFormat string    `json:"audioFormat,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`

	// Service is the originating platform, used only for per-service
	// bitstream quirks.
	Service string `json:"service,omitempty"`

	Mute bool `json:"mute,omitempty"`
	Copy bool `json:"copy,omitempty"`

	// BID is the caller-supplied job id for pooled streams.
	BID string `json:"bid,omitempty"`
}

// formatFromFilename derives the container format from the filename
// extension.
func formatFromFilename(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
