package answergate_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"clipgate/internal/answergate"
	"clipgate/internal/config"
	"clipgate/internal/logging"
	"clipgate/internal/services"
	"clipgate/internal/similarity"
)

type stubScorer struct {
	scores []float64
	errs   []error
	calls  int
}

func (s *stubScorer) Score(context.Context, string, string) (float64, error) {
	idx := s.calls
	s.calls++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	var score float64
	if idx < len(s.scores) {
		score = s.scores[idx]
	}
	return score, err
}

func newGate(scorer answergate.Scorer) *answergate.Gate {
	return answergate.New("post-1", "user-1", "Paris", 0.6, 2, scorer, logging.NewNop())
}

func TestCorrectOnFirstAttempt(t *testing.T) {
	gate := newGate(&stubScorer{scores: []float64{0.92}})

	result, err := gate.Submit(context.Background(), "paris ")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.State != answergate.StateCorrect {
		t.Fatalf("expected Correct, got %s", result.State)
	}
	if result.RevealedAnswer != "" {
		t.Fatalf("correct outcome must not reveal the answer, got %q", result.RevealedAnswer)
	}
	if !gate.Unlocked() {
		t.Fatal("expected gate to unlock")
	}
}

func TestCorrectOnSecondAttempt(t *testing.T) {
	gate := newGate(&stubScorer{scores: []float64{0.2, 0.8}})

	first, err := gate.Submit(context.Background(), "London")
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if first.State != answergate.StateIncorrectRetry {
		t.Fatalf("expected IncorrectRetry, got %s", first.State)
	}
	if first.AttemptsLeft != 1 {
		t.Fatalf("expected 1 attempt left, got %d", first.AttemptsLeft)
	}

	second, err := gate.Submit(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if second.State != answergate.StateCorrect {
		t.Fatalf("expected Correct, got %s", second.State)
	}
	if second.RevealedAnswer != "" {
		t.Fatal("correct outcome must not reveal the answer")
	}
}

func TestTwoMissesExhaustAndReveal(t *testing.T) {
	gate := newGate(&stubScorer{scores: []float64{0.1, 0.3}})

	if _, err := gate.Submit(context.Background(), "London"); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	result, err := gate.Submit(context.Background(), "London")
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if result.State != answergate.StateExhausted {
		t.Fatalf("expected Exhausted, got %s", result.State)
	}
	if result.RevealedAnswer != "Paris" {
		t.Fatalf("expected revealed answer %q, got %q", "Paris", result.RevealedAnswer)
	}
	if result.AttemptIndex != 1 {
		t.Fatalf("expected attempt index 1, got %d", result.AttemptIndex)
	}
}

func TestTerminalGateRejectsFurtherSubmissions(t *testing.T) {
	gate := newGate(&stubScorer{scores: []float64{0.9}})

	if _, err := gate.Submit(context.Background(), "Paris"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := gate.Submit(context.Background(), "Paris"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation on closed gate, got %v", err)
	}
}

// blockingScorer parks the first call until released; later calls score
// immediately.
type blockingScorer struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingScorer) Score(_ context.Context, text, reference string) (float64, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		<-s.release
	}
	if text == reference {
		return 1, nil
	}
	return 0, nil
}

func TestSlowWrongScoreCannotReopenCorrectGate(t *testing.T) {
	scorer := &blockingScorer{entered: make(chan struct{}), release: make(chan struct{})}
	gate := newGate(scorer)

	slowDone := make(chan error, 1)
	go func() {
		_, err := gate.Submit(context.Background(), "London")
		slowDone <- err
	}()
	<-scorer.entered

	result, err := gate.Submit(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.State != answergate.StateCorrect {
		t.Fatalf("expected Correct, got %s", result.State)
	}

	close(scorer.release)
	if err := <-slowDone; !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for late score against closed gate, got %v", err)
	}

	if got := gate.State(); got != answergate.StateCorrect {
		t.Fatalf("late score reopened the gate: %s", got)
	}
	if !gate.Unlocked() {
		t.Fatal("expected gate to stay unlocked")
	}
	if attempts := gate.Attempts(); len(attempts) != 1 {
		t.Fatalf("expected 1 consumed attempt, got %d", len(attempts))
	}
	if snapshot := gate.Snapshot(); snapshot.RevealedAnswer != "" {
		t.Fatalf("late score revealed the answer: %q", snapshot.RevealedAnswer)
	}
}

func TestScorerFailureDoesNotConsumeAttempt(t *testing.T) {
	scorer := &stubScorer{
		scores: []float64{0, 0.9},
		errs:   []error{errors.New("backend unreachable"), nil},
	}
	gate := newGate(scorer)

	_, err := gate.Submit(context.Background(), "Paris")
	if !errors.Is(err, services.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if got := gate.State(); got != answergate.StateAwaitingInput {
		t.Fatalf("expected AwaitingInput after scorer failure, got %s", got)
	}
	if attempts := gate.Attempts(); len(attempts) != 0 {
		t.Fatalf("scorer failure consumed %d attempts", len(attempts))
	}

	result, err := gate.Submit(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("retry Submit failed: %v", err)
	}
	if result.State != answergate.StateCorrect {
		t.Fatalf("expected Correct after retry, got %s", result.State)
	}
	if result.AttemptIndex != 0 {
		t.Fatalf("expected attempt index 0, got %d", result.AttemptIndex)
	}
}

func TestAttemptIndexIncreases(t *testing.T) {
	gate := answergate.New("post-1", "user-1", "Paris", 0.6, 3, &stubScorer{scores: []float64{0.1, 0.2, 0.3}}, logging.NewNop())

	for i := 0; i < 3; i++ {
		result, err := gate.Submit(context.Background(), "London")
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		if result.AttemptIndex != i {
			t.Fatalf("expected attempt index %d, got %d", i, result.AttemptIndex)
		}
	}
}

func TestGateWithRealScorerNormalization(t *testing.T) {
	// End-to-end with the similarity scorer: same text up to case and
	// whitespace embeds identically and clears the threshold.
	scorer := similarity.NewScorerWithEngine(identityEngine{})
	gate := answergate.New("post-1", "user-1", "Paris", 0.6, 2, scorer, logging.NewNop())

	result, err := gate.Submit(context.Background(), "paris ")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.State != answergate.StateCorrect {
		t.Fatalf("expected Correct, got %s", result.State)
	}
}

// identityEngine embeds equal texts to equal vectors and distinct texts to
// orthogonal vectors.
type identityEngine struct{}

func (identityEngine) Embed(_ context.Context, texts []string) ([][]float32, error) {
	seen := map[string]int{}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		slot, ok := seen[text]
		if !ok {
			slot = len(seen)
			seen[text] = slot
		}
		vec := make([]float32, 4)
		vec[slot%len(vec)] = 1
		vectors[i] = vec
	}
	return vectors, nil
}

func TestRegistryReusesSessions(t *testing.T) {
	cfg := config.Default().Answer
	registry := answergate.NewRegistry(cfg, &stubScorer{scores: []float64{0.9}}, logging.NewNop())

	gate := registry.Gate("post-1", "user-1", "Paris")
	if same := registry.Gate("post-1", "user-1", "other"); same != gate {
		t.Fatal("expected the existing session to be reused")
	}
	if _, ok := registry.Lookup("post-1", "user-2"); ok {
		t.Fatal("unexpected session for another user")
	}

	if _, err := gate.Submit(context.Background(), "Paris"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !registry.Unlocked("post-1", "user-1") {
		t.Fatal("expected registry to report unlocked")
	}
	if registry.Unlocked("post-1", "user-2") {
		t.Fatal("unexpected unlock for another user")
	}
}
