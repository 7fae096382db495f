// Package modeltest builds small deterministic cbow checkpoints for tests.
package modeltest

import (
	"path/filepath"
	"testing"

	"github.com/nmtgo/beamline/internal/checkpoint"
	"github.com/nmtgo/beamline/internal/vocab"
)

// Fixture describes a deterministic checkpoint. The packed model always
// emits Transitions[prev] after prev (end-of-sequence when absent), so the
// decoded output of any input is fully predictable.
type Fixture struct {
	ModelType   string
	Filters     []string
	SrcWords    []string
	TrgWords    []string
	Transitions map[int]int
}

func (f Fixture) withDefaults() Fixture {
	if f.ModelType == "" {
		f.ModelType = "cbow"
	}
	if f.SrcWords == nil {
		f.SrcWords = []string{"x", "y"}
	}
	if f.TrgWords == nil {
		f.TrgWords = []string{"a", "b"}
	}
	if f.Transitions == nil {
		aID := 4 // first word after the reserved markers
		f.Transitions = map[int]int{
			vocab.BosID: aID,
			aID:         vocab.EosID,
		}
	}
	return f
}

// Write packs the fixture into a checkpoint file under a temp dir and
// returns its path.
func Write(t testing.TB, f Fixture) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.blc")
	WriteTo(t, f, path)
	return path
}

// WriteTo packs the fixture into a checkpoint file at path.
func WriteTo(t testing.TB, f Fixture, path string) {
	t.Helper()
	f = f.withDefaults()

	srcTokens := fullVocab(f.SrcWords)
	trgTokens := fullVocab(f.TrgWords)
	vs := len(srcTokens)
	vt := len(trgTokens)

	// Embedding and hidden dims equal the target vocabulary size so the
	// identity embeddings and output projection leave the transition
	// weights in full control of the logits.
	opts := map[string]any{
		"model_type":   f.ModelType,
		"eval_filters": f.Filters,
		"src_vocab":    srcTokens,
		"trg_vocab":    trgTokens,
		"emb_dim":      vt,
		"hidden_dim":   vt,
	}

	wTrg := make([]float32, vt*vt)
	for prev := 0; prev < vt; prev++ {
		next, ok := f.Transitions[prev]
		if !ok {
			next = vocab.EosID
		}
		wTrg[next*vt+prev] = 10
	}

	b := checkpoint.NewBuilder(opts)
	mustAdd(t, b, "src_emb", []int{vs, vt}, zeros(vs*vt))
	mustAdd(t, b, "trg_emb", []int{vt, vt}, identity(vt))
	mustAdd(t, b, "w_src", []int{vt, vt}, zeros(vt*vt))
	mustAdd(t, b, "w_trg", []int{vt, vt}, wTrg)
	mustAdd(t, b, "b_h", []int{vt}, zeros(vt))
	mustAdd(t, b, "w_out", []int{vt, vt}, identity(vt))
	mustAdd(t, b, "b_out", []int{vt}, zeros(vt))

	if err := b.WriteFile(path); err != nil {
		t.Fatalf("write fixture checkpoint: %v", err)
	}
}

func fullVocab(words []string) []string {
	tokens := []string{vocab.PadToken, vocab.BosToken, vocab.EosToken, vocab.UnkToken}
	return append(tokens, words...)
}

func mustAdd(t testing.TB, b *checkpoint.Builder, name string, shape []int, data []float32) {
	t.Helper()
	if err := b.Add(name, shape, data); err != nil {
		t.Fatalf("add tensor %s: %v", name, err)
	}
}

func zeros(n int) []float32 {
	return make([]float32, n)
}

func identity(n int) []float32 {
	m := make([]float32, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = 1
	}
	return m
}
