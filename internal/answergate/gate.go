package answergate

import (
	"context"
	"log/slog"
	"sync"

	"clipgate/internal/logging"
	"clipgate/internal/services"
)

// State represents the lifecycle of a gating session.
type State string

const (
	StateAwaitingInput  State = "awaiting_input"
	StateScoring        State = "scoring"
	StateCorrect        State = "correct"
	StateIncorrectRetry State = "incorrect_retry"
	StateExhausted      State = "exhausted"
)

// Terminal reports whether the state admits no further submissions.
func (s State) Terminal() bool {
	return s == StateCorrect || s == StateExhausted
}

// Outcome classifies a single submission.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeExhausted Outcome = "exhausted"
)

// Attempt records one submission within a session. Transient; nothing here
// is persisted beyond the session.
type Attempt struct {
	PostID        string
	UserID        string
	SubmittedText string
	AttemptIndex  int
	Outcome       Outcome
	Score         float64
}

// Result reports the gate's reaction to a submission.
type Result struct {
	State        State
	Outcome      Outcome
	Score        float64
	AttemptIndex int
	AttemptsLeft int
	// RevealedAnswer carries the reference text once the gate is exhausted,
	// and only then.
	RevealedAnswer string
}

// Scorer is the similarity contract the gate consumes.
type Scorer interface {
	Score(ctx context.Context, a, b string) (float64, error)
}

// Gate is a single attempt-bounded gating session for one post and user.
type Gate struct {
	postID      string
	userID      string
	reference   string
	threshold   float64
	maxAttempts int
	scorer      Scorer
	logger      *slog.Logger

	mu       sync.Mutex
	state    State
	attempts []Attempt
}

// New constructs a gate in AwaitingInput. Threshold and maxAttempts come
// from configuration; maxAttempts counts total submissions before the gate
// locks into Exhausted.
func New(postID, userID, reference string, threshold float64, maxAttempts int, scorer Scorer, logger *slog.Logger) *Gate {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Gate{
		postID:      postID,
		userID:      userID,
		reference:   reference,
		threshold:   threshold,
		maxAttempts: maxAttempts,
		scorer:      scorer,
		logger:      logging.NewComponentLogger(logger, "answergate"),
		state:       StateAwaitingInput,
	}
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Attempts returns a copy of the attempts consumed so far.
func (g *Gate) Attempts() []Attempt {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := make([]Attempt, len(g.attempts))
	copy(cp, g.attempts)
	return cp
}

// Unlocked reports whether the gate has reached Correct.
func (g *Gate) Unlocked() bool {
	return g.State() == StateCorrect
}

// Snapshot returns the externally visible session state without submitting.
func (g *Gate) Snapshot() Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() Result {
	result := Result{
		State:        g.state,
		Outcome:      OutcomePending,
		AttemptIndex: len(g.attempts) - 1,
		AttemptsLeft: g.maxAttempts - len(g.attempts),
	}
	if n := len(g.attempts); n > 0 {
		last := g.attempts[n-1]
		result.Outcome = last.Outcome
		result.Score = last.Score
	}
	if g.state == StateExhausted {
		result.RevealedAnswer = g.reference
	}
	return result
}

// Submit scores text against the hidden reference and advances the state
// machine. A scorer failure returns the gate to AwaitingInput, reports
// services.ErrModelUnavailable, and does not consume an attempt. Submissions
// against a terminal gate fail with services.ErrValidation.
func (g *Gate) Submit(ctx context.Context, text string) (Result, error) {
	g.mu.Lock()
	if g.state.Terminal() {
		result := g.snapshotLocked()
		g.mu.Unlock()
		return result, services.Wrap(services.ErrValidation, "answer", "submit", "gate already closed", nil)
	}
	g.state = StateScoring
	g.mu.Unlock()

	score, err := g.scorer.Score(ctx, text, g.reference)

	g.mu.Lock()
	defer g.mu.Unlock()

	// A concurrent submission may have closed the gate while this score was
	// in flight. Terminal states never re-arm, so this result is discarded
	// and no attempt is consumed.
	if g.state.Terminal() {
		return g.snapshotLocked(), services.Wrap(services.ErrValidation, "answer", "submit", "gate already closed", nil)
	}

	if err != nil {
		g.state = StateAwaitingInput
		g.logger.Warn("answer scoring unavailable",
			logging.String(logging.FieldPostID, g.postID),
			logging.Error(err),
		)
		return g.snapshotLocked(), services.Wrap(services.ErrModelUnavailable, "answer", "score", "cannot validate now", err)
	}

	attempt := Attempt{
		PostID:        g.postID,
		UserID:        g.userID,
		SubmittedText: text,
		AttemptIndex:  len(g.attempts),
		Score:         score,
	}

	switch {
	case score >= g.threshold:
		attempt.Outcome = OutcomeCorrect
		g.state = StateCorrect
	case len(g.attempts)+1 >= g.maxAttempts:
		attempt.Outcome = OutcomeExhausted
		g.state = StateExhausted
	default:
		attempt.Outcome = OutcomeIncorrect
		g.state = StateIncorrectRetry
	}
	g.attempts = append(g.attempts, attempt)

	g.logger.Info("answer scored",
		logging.String(logging.FieldPostID, g.postID),
		logging.Int("attempt", attempt.AttemptIndex),
		logging.Float64("score", score),
		logging.String("outcome", string(attempt.Outcome)),
	)

	return g.snapshotLocked(), nil
}
