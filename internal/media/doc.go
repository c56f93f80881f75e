// Package media defines the clip payload types shared across the recording,
// transcoding, storage, and merge pipeline.
//
// A RawClip is the unprocessed capture output; an EncodedClip is the product
// of a transcode pass. Kind fixes the codec pipeline a clip flows through and
// never changes after capture.
package media
