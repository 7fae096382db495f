// Package search implements ensembled beam-search decoding. Partial
// hypotheses are expanded with per-step distributions averaged across all
// ensemble members in log space, pruned to a fixed beam width, and ranked
// with a length penalty once finished.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/nmtgo/beamline/internal/model"
	"github.com/nmtgo/beamline/internal/vocab"
)

// Options bounds one decode invocation. BeamWidth and MaxLen are hard upper
// bounds, never exceeded.
type Options struct {
	BeamWidth int
	MaxLen    int
	LPAlpha   float64
}

// Validate rejects out-of-range parameters before any decoding work.
func (o Options) Validate() error {
	if o.BeamWidth < 1 {
		return fmt.Errorf("beam width must be >= 1, got %d", o.BeamWidth)
	}
	if o.MaxLen < 1 {
		return fmt.Errorf("max length must be >= 1, got %d", o.MaxLen)
	}
	if o.LPAlpha < 0 {
		return fmt.Errorf("length penalty alpha must be >= 0, got %v", o.LPAlpha)
	}
	return nil
}

// Hypothesis is one output token sequence with its score. Score holds the
// raw accumulated log-probability while the hypothesis lives in a beam and
// the length-penalized score once returned from DecodeBatch.
type Hypothesis struct {
	Tokens   []int
	Score    float64
	Finished bool
}

// DecodeBatch decodes one batch of encoded source sequences, returning
// exactly one hypothesis per source in input order. An empty batch yields
// an empty result. Members are queried read-only, so the same ensemble may
// decode any number of batches.
func DecodeBatch(ctx context.Context, members []model.Member, sources [][]int, opts Options) ([]Hypothesis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("empty ensemble")
	}

	out := make([]Hypothesis, len(sources))
	for i, src := range sources {
		hyp, err := decodeExample(ctx, members, src, opts)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		out[i] = hyp
	}
	return out, nil
}

// candidate is one possible beam entry for the next timestep: either a
// frozen finished hypothesis carried over, or a live hypothesis extended
// by one token.
type candidate struct {
	origin int // index of the originating hypothesis in the current beam
	token  int // -1 when carrying a finished hypothesis
	score  float64
}

func decodeExample(ctx context.Context, members []model.Member, src []int, opts Options) (Hypothesis, error) {
	beam := []Hypothesis{{Score: 0}}

	for t := 0; t < opts.MaxLen; t++ {
		if err := ctx.Err(); err != nil {
			return Hypothesis{}, err
		}
		if allFinished(beam) {
			break
		}

		// Candidates are gathered in beam order, so the stable sort
		// below breaks score ties by originating-hypothesis insertion
		// order, then by token id.
		var cands []candidate
		for i, hyp := range beam {
			if hyp.Finished {
				cands = append(cands, candidate{origin: i, token: -1, score: hyp.Score})
				continue
			}
			avg, err := averagedLogProbs(members, src, hyp.Tokens)
			if err != nil {
				return Hypothesis{}, err
			}
			for tok, lp := range avg {
				cands = append(cands, candidate{origin: i, token: tok, score: hyp.Score + lp})
			}
		}

		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].score > cands[b].score
		})

		width := opts.BeamWidth
		if width > len(cands) {
			width = len(cands)
		}

		next := make([]Hypothesis, 0, width)
		for _, c := range cands[:width] {
			if c.token < 0 {
				next = append(next, beam[c.origin])
				continue
			}
			parent := beam[c.origin]
			tokens := make([]int, 0, len(parent.Tokens)+1)
			tokens = append(tokens, parent.Tokens...)
			tokens = append(tokens, c.token)
			next = append(next, Hypothesis{
				Tokens:   tokens,
				Score:    c.score,
				Finished: c.token == vocab.EosID,
			})
		}
		beam = next
	}

	return pickBest(beam, LengthPenalty{Alpha: opts.LPAlpha}), nil
}

// averagedLogProbs merges per-member distributions by arithmetic averaging
// of log-probabilities with equal weighting.
func averagedLogProbs(members []model.Member, src []int, prefix []int) ([]float64, error) {
	var avg []float64
	for _, member := range members {
		lp, err := member.LogProbs(src, prefix)
		if err != nil {
			return nil, err
		}
		if avg == nil {
			avg = make([]float64, len(lp))
		} else if len(lp) != len(avg) {
			return nil, fmt.Errorf("member distribution size %d != %d", len(lp), len(avg))
		}
		for i, v := range lp {
			avg[i] += v
		}
	}
	inv := 1.0 / float64(len(members))
	for i := range avg {
		avg[i] *= inv
	}
	return avg, nil
}

// pickBest selects the single best hypothesis by length-penalized score.
// Hypotheses still live at the length ceiling are finished by forced
// truncation. Strict comparison keeps the tie-break stable on beam order.
func pickBest(beam []Hypothesis, penalty LengthPenalty) Hypothesis {
	best := beam[0]
	bestScore := penalty.Normalize(best.Score, len(best.Tokens))
	for _, hyp := range beam[1:] {
		if score := penalty.Normalize(hyp.Score, len(hyp.Tokens)); score > bestScore {
			best = hyp
			bestScore = score
		}
	}
	best.Finished = true
	best.Score = bestScore
	return best
}

func allFinished(beam []Hypothesis) bool {
	for _, hyp := range beam {
		if !hyp.Finished {
			return false
		}
	}
	return true
}
