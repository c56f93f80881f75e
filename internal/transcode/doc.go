// Package transcode converts captured clips between container formats and
// concatenates ordered clip sequences, wrapping the ffmpeg command line.
//
// Two operations are exposed: Encode re-muxes or re-encodes a single clip
// (video deliverables are H.264/AAC MP4 with the moov atom relocated to the
// front), and Concatenate normalizes every input to a shared MPEG-TS
// intermediate, stream-copies them together from a generated manifest, and
// runs one final encode pass. Both report fractional progress parsed from
// ffmpeg's machine-readable progress output.
//
// The engine binaries are resolved lazily and cached process-wide; the
// engine is a single logical worker, so at most one operation runs at a
// time per Transcoder. Scratch files live in per-operation directories and
// are removed on success and failure alike.
package transcode
