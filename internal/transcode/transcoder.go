package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/media"
	"clipgate/internal/media/ffprobe"
	"clipgate/internal/services"
)

// Transcoder converts clips between formats and concatenates ordered clip
// sequences. The underlying engine is a single logical worker: operations
// are serialized, and a started operation runs to completion or failure.
type Transcoder struct {
	cfg         config.Transcode
	scratchRoot string
	loader      *EngineLoader
	logger      *slog.Logger

	mu sync.Mutex
}

// New constructs a transcoder with a lazy engine loader.
func New(cfg *config.Config, logger *slog.Logger) *Transcoder {
	return &Transcoder{
		cfg:         cfg.Transcode,
		scratchRoot: cfg.Paths.ScratchDir,
		loader:      NewEngineLoader(cfg.Transcode),
		logger:      logging.NewComponentLogger(logger, "transcode"),
	}
}

func (t *Transcoder) audioBitrate() string {
	return fmt.Sprintf("%dk", t.cfg.AudioBitrateKbps)
}

// Encode re-muxes or re-encodes a single clip into the target format.
//
// Video deliverables are H.264 video with AAC audio in an MP4 container,
// faststart enabled so playback can begin before the full download. Audio
// clips keep their source container unless an MP4 deliverable is requested;
// re-encoding to the capture container applies loudness normalization.
func (t *Transcoder) Encode(ctx context.Context, raw media.RawClip, target media.Format, emit ProgressFunc) (media.EncodedClip, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	engine, err := t.loader.Engine(ctx)
	if err != nil {
		return media.EncodedClip{}, err
	}

	work, err := newScratch(t.scratchRoot, t.cfg.ScratchMinFreeMiB, "encode")
	if err != nil {
		return media.EncodedClip{}, err
	}
	defer work.Cleanup()

	input, err := work.Write("input.src", raw.Bytes)
	if err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "encode", "stage input", err)
	}

	probe, err := ffprobe.Inspect(ctx, engine.FFprobe, input)
	if err != nil {
		return media.EncodedClip{}, services.NewDecodeError(0, err)
	}

	output := work.Path("output." + target.Ext())
	args := t.encodeArgs(raw.Kind, target, probe, input, output)

	t.logger.Info("encoding clip",
		logging.String(logging.FieldMediaKind, string(raw.Kind)),
		logging.String("target", string(target)),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
	)

	if err := runFFmpeg(ctx, engine.FFmpeg, args, "encode", probe.DurationSeconds(), emit); err != nil {
		return media.EncodedClip{}, services.NewDecodeError(0, err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "encode", "collect output", err)
	}
	return media.EncodedClip{Bytes: data, Kind: raw.Kind, Format: target}, nil
}

func (t *Transcoder) encodeArgs(kind media.Kind, target media.Format, probe ffprobe.Result, input, output string) []string {
	switch {
	case kind == media.KindVideo && target == media.FormatMP4:
		return []string{
			"-i", input,
			"-c:v", "libx264",
			"-c:a", "aac",
			"-b:a", t.audioBitrate(),
			"-movflags", "+faststart",
			output,
		}
	case kind == media.KindAudio && target == media.FormatMP4:
		return []string{
			"-i", input,
			"-vn",
			"-c:a", "aac",
			"-b:a", t.audioBitrate(),
			"-movflags", "+faststart",
			output,
		}
	case kind == media.KindAudio && target == media.FormatWebM:
		// Keep the capture container; normalize loudness for playback.
		return []string{
			"-i", input,
			"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
			"-c:a", "libopus",
			"-b:a", "128k",
			output,
		}
	case target == media.FormatMPEGTS:
		return t.normalizeArgs(probe, input, output)
	default:
		return []string{"-i", input, "-c", "copy", output}
	}
}

// normalizeArgs produces the concat-compatible MPEG-TS intermediate. Inputs
// already carrying H.264/AAC are stream-copied; everything else re-encodes.
func (t *Transcoder) normalizeArgs(probe ffprobe.Result, input, output string) []string {
	hasVideo := probe.VideoStreamCount() > 0
	videoCopyable := probe.FirstCodec("video") == "h264"
	audioCopyable := probe.AudioStreamCount() == 0 || probe.FirstCodec("audio") == "aac"

	if hasVideo && videoCopyable && audioCopyable {
		return []string{
			"-i", input,
			"-c", "copy",
			"-bsf:v", "h264_mp4toannexb",
			"-f", "mpegts",
			output,
		}
	}
	if !hasVideo {
		return []string{
			"-i", input,
			"-vn",
			"-c:a", "aac",
			"-b:a", t.audioBitrate(),
			"-f", "mpegts",
			output,
		}
	}
	return []string{
		"-i", input,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", t.audioBitrate(),
		"-f", "mpegts",
		output,
	}
}

// Concat stage windows. Normalization dominates wall time, the stream-copy
// concat is nearly free, and the final encode re-reads the whole sequence.
const (
	concatNormalizeEnd = 0.6
	concatCopyEnd      = 0.7
)

// Concatenate joins an ordered sequence of encoded clips into one
// H.264/AAC faststart MP4. Every input is first normalized to the shared
// MPEG-TS intermediate, a manifest enumerating the clips in call order
// drives a stream-copy concat, and exactly one final encode pass produces
// the deliverable.
//
// A corrupt input aborts the whole operation with a DecodeError naming the
// zero-based index of the offending clip; no partial output is emitted.
func (t *Transcoder) Concatenate(ctx context.Context, clips []media.EncodedClip, emit ProgressFunc) (media.EncodedClip, error) {
	if len(clips) == 0 {
		return media.EncodedClip{}, services.Wrap(services.ErrValidation, "transcode", "concatenate", "no clips", nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	engine, err := t.loader.Engine(ctx)
	if err != nil {
		return media.EncodedClip{}, err
	}

	work, err := newScratch(t.scratchRoot, t.cfg.ScratchMinFreeMiB, "merge")
	if err != nil {
		return media.EncodedClip{}, err
	}
	defer work.Cleanup()

	var totalSeconds float64
	hasVideo := false
	parts := make([]string, len(clips))
	normalizeSpan := concatNormalizeEnd / float64(len(clips))

	for i, clip := range clips {
		input, err := work.Write(fmt.Sprintf("clip%d.%s", i, clip.Format.Ext()), clip.Bytes)
		if err != nil {
			return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "concatenate", "stage input", err)
		}

		probe, err := ffprobe.Inspect(ctx, engine.FFprobe, input)
		if err != nil {
			return media.EncodedClip{}, services.NewDecodeError(i, err)
		}
		totalSeconds += probe.DurationSeconds()
		if probe.VideoStreamCount() > 0 {
			hasVideo = true
		}

		part := work.Path(fmt.Sprintf("clip%d.ts", i))
		window := windowed(emit, "normalizing", float64(i)*normalizeSpan, float64(i+1)*normalizeSpan)
		if err := runFFmpeg(ctx, engine.FFmpeg, t.normalizeArgs(probe, input, part), "normalize", probe.DurationSeconds(), window); err != nil {
			return media.EncodedClip{}, services.NewDecodeError(i, err)
		}
		parts[i] = fmt.Sprintf("clip%d.ts", i)
	}

	// Manifest lines reference the clips in call order; reordering inputs
	// reorders the merged output deterministically.
	var manifest strings.Builder
	for _, part := range parts {
		fmt.Fprintf(&manifest, "file '%s'\n", part)
	}
	manifestPath, err := work.Write("concat.txt", []byte(manifest.String()))
	if err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "concatenate", "write manifest", err)
	}

	joined := work.Path("joined.ts")
	concatArgs := []string{"-f", "concat", "-safe", "0", "-i", manifestPath, "-c", "copy", "-f", "mpegts", joined}
	if err := runFFmpeg(ctx, engine.FFmpeg, concatArgs, "concat", totalSeconds, windowed(emit, "concatenating", concatNormalizeEnd, concatCopyEnd)); err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "concatenate", "stream copy", err)
	}

	output := work.Path("output.mp4")
	finalArgs := []string{
		"-i", joined,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", t.audioBitrate(),
		"-movflags", "+faststart",
		output,
	}
	if !hasVideo {
		finalArgs = []string{
			"-i", joined,
			"-vn",
			"-c:a", "aac",
			"-b:a", t.audioBitrate(),
			"-movflags", "+faststart",
			output,
		}
	}
	if err := runFFmpeg(ctx, engine.FFmpeg, finalArgs, "encode", totalSeconds, windowed(emit, "encoding", concatCopyEnd, 1)); err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "concatenate", "final encode", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return media.EncodedClip{}, services.Wrap(services.ErrTransient, "transcode", "concatenate", "collect output", err)
	}
	if !HasFastStart(data) {
		t.logger.Warn("merged output missing faststart layout",
			logging.Int("bytes", len(data)),
		)
	}

	kind := media.KindVideo
	if !hasVideo {
		kind = media.KindAudio
	}
	return media.EncodedClip{Bytes: data, Kind: kind, Format: media.FormatMP4}, nil
}
