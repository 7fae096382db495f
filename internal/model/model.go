// Package model defines the inference-side model contract and the registry
// of supported architectures. Members are immutable after load; decoding
// never mutates their state, so one instance may serve many batches.
package model

// Member is one inference-ready model in an ensemble.
type Member interface {
	// TrgVocabSize is the size of the target vocabulary the member
	// predicts over.
	TrgVocabSize() int

	// EvalFilters is the post-processing filter list the member was
	// trained to expect.
	EvalFilters() []string

	// SupportsBeamSearch reports whether the architecture can be decoded
	// by beam search.
	SupportsBeamSearch() bool

	// LogProbs returns the log-probability distribution over the target
	// vocabulary for the next token, conditioned on the source input and
	// the hypothesis prefix. The returned slice has TrgVocabSize entries.
	LogProbs(src []int, prefix []int) ([]float64, error)
}

// Codec is implemented by members that own their vocabularies. The first
// ensemble member encodes inputs and renders outputs for the whole run.
type Codec interface {
	EncodeSource(line string) []int
	DecodeTarget(ids []int) string
}
