package search

import (
	"math"
	"testing"
)

func TestLengthPenaltyAlphaZeroIsIdentity(t *testing.T) {
	t.Parallel()

	p := LengthPenalty{Alpha: 0}
	scores := []float64{-3.5, -0.1, 0, -42}
	for _, s := range scores {
		for n := 1; n < 20; n++ {
			if got := p.Normalize(s, n); got != s {
				t.Fatalf("alpha 0 changed score: %v -> %v (n=%d)", s, got, n)
			}
		}
	}
}

func TestLengthPenaltyNeverLowersLongScores(t *testing.T) {
	t.Parallel()

	// For summed negative log-probabilities, normalization must not make
	// a sequence look worse than its raw score, and more alpha means
	// more relief.
	score := -8.0
	n := 12
	prev := score
	for _, alpha := range []float64{0.5, 1.0, 2.0, 4.0} {
		got := LengthPenalty{Alpha: alpha}.Normalize(score, n)
		if got < score {
			t.Fatalf("alpha %v lowered score %v to %v", alpha, score, got)
		}
		if got < prev {
			t.Fatalf("alpha %v: normalized score %v below %v at smaller alpha", alpha, got, prev)
		}
		prev = got
	}
}

func TestLengthPenaltyFormula(t *testing.T) {
	t.Parallel()

	p := LengthPenalty{Alpha: 1}
	// ((7+5)/6)^1 = 2
	if got := p.Normalize(-4, 7); math.Abs(got-(-2)) > 1e-12 {
		t.Fatalf("expected -2, got %v", got)
	}

	p = LengthPenalty{Alpha: 2}
	// ((1+5)/6)^2 = 1
	if got := p.Normalize(-4, 1); math.Abs(got-(-4)) > 1e-12 {
		t.Fatalf("expected -4, got %v", got)
	}
}
