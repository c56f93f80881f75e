// Package similarity scores free-text answers against a hidden reference
// using sentence embeddings.
//
// The Scorer case-folds both inputs, embeds them through an OpenAI-compatible
// backend, and reports the normalized dot product of the two vectors as a
// value in [0,1]. The embedding engine loads lazily and is cached for the
// process lifetime; concurrent first use collapses to a single load. Backend
// failures surface as services.ErrModelUnavailable so callers can distinguish
// "cannot validate now" from "answer is wrong".
package similarity
