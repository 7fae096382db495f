package search

import "math"

// LengthPenalty rescores finished hypotheses so longer sequences are not
// unfairly penalized for having summed more negative log-probabilities.
// Alpha 0 disables normalization entirely.
type LengthPenalty struct {
	Alpha float64
}

// Normalize maps a raw accumulated log-probability to its length-penalized
// form: score / ((n+5)/6)^alpha. It is applied only at final ranking,
// never during beam expansion.
func (p LengthPenalty) Normalize(score float64, length int) float64 {
	if p.Alpha == 0 || length == 0 {
		return score
	}
	return score / math.Pow(float64(length+5)/6.0, p.Alpha)
}
