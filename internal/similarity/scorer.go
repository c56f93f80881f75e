package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Loader constructs the embedding engine on first use. Loads are expensive,
// so the Scorer invokes it at most once concurrently and caches the result
// for the process lifetime. A failed load is not cached; the next Score call
// retries.
type Loader func(ctx context.Context) (Engine, error)

// Scorer computes semantic similarity between two strings.
type Scorer struct {
	loader Loader

	group singleflight.Group
	mu    sync.RWMutex
	eng   Engine
}

// NewScorer constructs a scorer with a lazy engine loader.
func NewScorer(loader Loader) *Scorer {
	return &Scorer{loader: loader}
}

// NewScorerWithEngine constructs a scorer around an already-loaded engine.
// Used by tests to substitute a fake backend.
func NewScorerWithEngine(eng Engine) *Scorer {
	return &Scorer{eng: eng}
}

func (s *Scorer) engine(ctx context.Context) (Engine, error) {
	s.mu.RLock()
	eng := s.eng
	s.mu.RUnlock()
	if eng != nil {
		return eng, nil
	}
	if s.loader == nil {
		return nil, fmt.Errorf("no embedding engine configured")
	}

	// Collapse concurrent first-use loads into one in-flight call.
	value, err, _ := s.group.Do("load", func() (any, error) {
		s.mu.RLock()
		cached := s.eng
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		loaded, err := s.loader(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.eng = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load embedding engine: %w", err)
	}
	return value.(Engine), nil
}

// Score returns the semantic similarity of a and b in [0,1]. Inputs are
// case-folded and trimmed before embedding.
func (s *Scorer) Score(ctx context.Context, a, b string) (float64, error) {
	eng, err := s.engine(ctx)
	if err != nil {
		return 0, err
	}

	texts := []string{Normalize(a), Normalize(b)}
	vectors, err := eng.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed answers: %w", err)
	}
	if len(vectors) != 2 || len(vectors[0]) == 0 || len(vectors[1]) == 0 {
		return 0, fmt.Errorf("embed answers: backend returned %d vectors", len(vectors))
	}

	return cosine(vectors[0], vectors[1]), nil
}

// Normalize applies the canonical answer normalization: trim surrounding
// whitespace and Unicode-lowercase.
func Normalize(text string) string {
	return lowerCaser.String(strings.TrimSpace(text))
}

// cosine computes dot(a,b) / (|a| * |b|), clamped to [0,1]. Identical
// normalized inputs embed to identical vectors, so reflexive pairs score 1.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
