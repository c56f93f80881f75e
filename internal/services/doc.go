// Package services defines shared utilities consumed by the media pipeline
// and the answer gate.
//
// Key responsibilities:
//   - Context helpers that stamp post IDs, user IDs, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (model unavailable, device unavailable, decode failed, upload failed)
//     so callers can branch on cause without string matching.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across the system.
package services
