package answergate

import (
	"log/slog"
	"sync"

	"clipgate/internal/config"
)

// Registry owns the in-memory gating sessions, keyed by (post, user).
// Terminal sessions stay registered so their outcome remains sticky for the
// registry's lifetime.
type Registry struct {
	cfg    config.Answer
	scorer Scorer
	logger *slog.Logger

	mu    sync.Mutex
	gates map[sessionKey]*Gate
}

type sessionKey struct {
	postID string
	userID string
}

// NewRegistry constructs an empty session registry.
func NewRegistry(cfg config.Answer, scorer Scorer, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:    cfg,
		scorer: scorer,
		logger: logger,
		gates:  make(map[sessionKey]*Gate),
	}
}

// Gate returns the session for (postID, userID), creating it against the
// given reference answer on first use. The reference of an existing session
// is not replaced.
func (r *Registry) Gate(postID, userID, reference string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{postID: postID, userID: userID}
	if gate, ok := r.gates[key]; ok {
		return gate
	}
	gate := New(postID, userID, reference, r.cfg.SimilarityThreshold, r.cfg.MaxAttempts, r.scorer, r.logger)
	r.gates[key] = gate
	return gate
}

// Lookup returns the session if one exists.
func (r *Registry) Lookup(postID, userID string) (*Gate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate, ok := r.gates[sessionKey{postID: postID, userID: userID}]
	return gate, ok
}

// Unlocked reports whether (postID, userID) has a session in Correct.
func (r *Registry) Unlocked(postID, userID string) bool {
	gate, ok := r.Lookup(postID, userID)
	return ok && gate.Unlocked()
}
