// Package merge assembles every clip recorded for a post into a single MP4
// artifact. A merge job fetches all clips first, then hands the ordered batch
// to the transcoder for normalization, concatenation, and the final encode.
// At most one job runs per post; a failed job can be retried.
package merge
