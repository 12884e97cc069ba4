package transcoder

import (
	"fmt"
	"sort"
	"strconv"
)

// audioProfiles are the encode argument bundles for the audio remux
// strategy, keyed by profile name.
var audioProfiles = map[string][]string{
	"copy":  {"-c:a", "copy"},
	"audio": {"-ar", "48000", "-ac", "2", "-b:a", "320k"},
}

// formatArgs are per-container argument bundles appended after the
// encode profile (audio remux) or the stream mapping (render jobs).
var formatArgs = map[string][]string{
	"mp4":  {"-c:v", "copy", "-c:a", "copy", "-movflags", "faststart+frag_keyframe+empty_moov"},
	"webm": {"-c:v", "copy", "-c:a", "copy"},
	"m4a":  {"-movflags", "frag_keyframe+empty_moov"},
	"mp3":  {"-id3v2_version", "3", "-c:a", "libmp3lame"},
	"opus": {"-c:a", "libopus"},
	"ogg":  {"-c:a", "libvorbis"},
	"wav":  {"-c:a", "pcm_s16le"},
}

// adtsServices are platforms that serve AAC in ADTS framing, which
// must be converted to ASC before muxing into mp4-family containers.
var adtsServices = map[string]bool{
	"vimeo":  true,
	"rutube": true,
}

// OutputFormat maps a requested container name to the muxer name
// ffmpeg expects. "m4a" is the one oddball: its muxer is called "ipod".
func OutputFormat(format string) string {
	if format == "m4a" {
		return "ipod"
	}
	return format
}

// MetadataArgs expands a tag map into -metadata key=value pairs, in
// sorted key order so argument lists are deterministic.
func MetadataArgs(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", k, tags[k]))
	}
	return args
}

func (t *Transcoder) baseArgs() []string {
	return []string{
		"-loglevel", "-8",
		"-threads", strconv.Itoa(t.threads),
	}
}

// AudioJob describes an audio-only remux invocation.
type AudioJob struct {
	Source string
	Format string
	Tags   map[string]string

	// Cover is a cover-art source muxed as a second input when
	// EmbedCover is set. Embedding corrupts output with some
	// containers, so it is opt-in.
	Cover      string
	EmbedCover bool

	// StreamCopy selects the copy profile instead of re-encoding.
	StreamCopy bool
}

// AudioRemuxArgs builds the argument list for an audio-only remux
// writing to stdout.
func (t *Transcoder) AudioRemuxArgs(job AudioJob) []string {
	args := t.baseArgs()
	args = append(args, "-i", job.Source)

	if job.EmbedCover && job.Cover != "" {
		args = append(args, "-i", job.Cover, "-map", "0:a", "-map", "1:0")
	} else {
		args = append(args, "-vn")
	}

	if len(job.Tags) > 0 {
		args = append(args, MetadataArgs(job.Tags)...)
	}

	if job.StreamCopy {
		args = append(args, audioProfiles["copy"]...)
	} else {
		args = append(args, audioProfiles["audio"]...)
	}

	if extra, ok := formatArgs[job.Format]; ok {
		args = append(args, extra...)
	}

	args = append(args, "-f", OutputFormat(job.Format), "pipe:1")
	return args
}

// VideoJob describes a video-only remux invocation.
type VideoJob struct {
	Source  string
	Format  string
	Service string
	Mute    bool
}

// VideoRemuxArgs builds the argument list for a stream-copy video
// remux writing to stdout.
func (t *Transcoder) VideoRemuxArgs(job VideoJob) []string {
	args := t.baseArgs()
	args = append(args, "-i", job.Source, "-c", "copy")

	if job.Mute {
		args = append(args, "-an")
	}
	if adtsServices[job.Service] {
		args = append(args, "-bsf:a", "aac_adtstoasc")
	}
	if job.Format == "mp4" {
		args = append(args, "-movflags", "faststart+frag_keyframe+empty_moov")
	}

	args = append(args, "-f", OutputFormat(job.Format), "pipe:1")
	return args
}

// RenderJob describes a two-track render muxing separately sourced
// video and audio into a file.
type RenderJob struct {
	VideoSource string
	AudioSource string
	Format      string
	OutputPath  string
	Tags        map[string]string
}

// RenderArgs builds the argument list for a render job. Output goes to
// a file, not a pipe: both inputs must be muxed together before the
// result is deliverable.
func (t *Transcoder) RenderArgs(job RenderJob) []string {
	args := t.baseArgs()
	args = append(args,
		"-i", job.VideoSource,
		"-i", job.AudioSource,
		"-map", "0:v",
		"-map", "1:a",
	)

	if extra, ok := formatArgs[job.Format]; ok {
		args = append(args, extra...)
	}
	if len(job.Tags) > 0 {
		args = append(args, MetadataArgs(job.Tags)...)
	}

	args = append(args, "-f", OutputFormat(job.Format), job.OutputPath)
	return args
}
