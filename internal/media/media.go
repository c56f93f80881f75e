package media

import (
	"strings"
	"time"
)

// Kind identifies the capture pipeline a clip belongs to. It is fixed at
// creation; video implies joint audio and video tracks, audio is audio-only.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAudio:
		return KindAudio, true
	case KindVideo:
		return KindVideo, true
	default:
		return "", false
	}
}

// CaptureMIME returns the raw capture MIME type for the kind.
func (k Kind) CaptureMIME() string {
	if k == KindVideo {
		return "video/webm;codecs=h264"
	}
	return "audio/webm;codecs=opus"
}

// Format names a container/codec combination a clip can be encoded to.
type Format string

const (
	// FormatMP4 is the web deliverable: H.264 video, AAC audio, faststart.
	FormatMP4 Format = "mp4"
	// FormatWebM is the raw capture container; audio-only clips keep it
	// unless a deliverable format is requested.
	FormatWebM Format = "webm"
	// FormatMPEGTS is the concat-compatible intermediate used before the
	// final merge encode. Never delivered to users.
	FormatMPEGTS Format = "mpegts"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMPEGTS:
		return "ts"
	default:
		return string(f)
	}
}

// MIME returns the delivery MIME type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatMP4:
		return "video/mp4"
	case FormatWebM:
		return "video/webm"
	case FormatMPEGTS:
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// RawClip is the unprocessed output of a capture session.
type RawClip struct {
	Bytes []byte
	Kind  Kind
}

// EncodedClip is the product of a transcode pass.
type EncodedClip struct {
	Bytes  []byte
	Kind   Kind
	Format Format
}

// Clip is a stored recording owned by exactly one post. Immutable once
// stored; re-recording creates a new Clip.
type Clip struct {
	ID        string
	PostID    string
	OwnerID   string
	Kind      Kind
	Format    Format
	URL       string
	SizeBytes int64
	CreatedAt time.Time
}
