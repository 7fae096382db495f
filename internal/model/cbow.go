package model

import (
	"fmt"
	"math"

	"github.com/nmtgo/beamline/internal/checkpoint"
	"github.com/nmtgo/beamline/internal/vocab"
)

func init() {
	Register("cbow", newCBOW)
}

// cbow is a conditional bag-of-words decoder: the next-token distribution
// is a projection of the mean source embedding combined with the previous
// target token's embedding.
//
//	h = tanh(Wsrc * mean(srcEmb) + Wtrg * trgEmb[prev] + bh)
//	logits = Wout * h + bout
type cbow struct {
	srcVocab *vocab.Vocab
	trgVocab *vocab.Vocab
	filters  []string

	embDim    int
	hiddenDim int

	srcEmb mat // [Vsrc x E]
	trgEmb mat // [Vtrg x E]
	wSrc   mat // [H x E]
	wTrg   mat // [H x E]
	bH     []float32
	wOut   mat // [Vtrg x H]
	bOut   []float32
}

// mat is a dense row-major float32 matrix.
type mat struct {
	rows, cols int
	data       []float32
}

func (m mat) row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

func newCBOW(cfg *Config, weights *checkpoint.File) (Member, error) {
	srcVocab, err := vocab.FromList(cfg.SrcVocab)
	if err != nil {
		return nil, fmt.Errorf("src_vocab: %w", err)
	}
	trgVocab, err := vocab.FromList(cfg.TrgVocab)
	if err != nil {
		return nil, fmt.Errorf("trg_vocab: %w", err)
	}

	m := &cbow{
		srcVocab:  srcVocab,
		trgVocab:  trgVocab,
		filters:   append([]string(nil), cfg.EvalFilters...),
		embDim:    cfg.EmbDim,
		hiddenDim: cfg.HiddenDim,
	}

	vs, vt, e, h := srcVocab.Size(), trgVocab.Size(), cfg.EmbDim, cfg.HiddenDim
	if m.srcEmb, err = loadMat(weights, "src_emb", vs, e); err != nil {
		return nil, err
	}
	if m.trgEmb, err = loadMat(weights, "trg_emb", vt, e); err != nil {
		return nil, err
	}
	if m.wSrc, err = loadMat(weights, "w_src", h, e); err != nil {
		return nil, err
	}
	if m.wTrg, err = loadMat(weights, "w_trg", h, e); err != nil {
		return nil, err
	}
	if m.bH, err = loadVec(weights, "b_h", h); err != nil {
		return nil, err
	}
	if m.wOut, err = loadMat(weights, "w_out", vt, h); err != nil {
		return nil, err
	}
	if m.bOut, err = loadVec(weights, "b_out", vt); err != nil {
		return nil, err
	}
	return m, nil
}

func loadMat(f *checkpoint.File, name string, rows, cols int) (mat, error) {
	data, shape, err := f.Tensor(name)
	if err != nil {
		return mat{}, err
	}
	if len(shape) != 2 || shape[0] != rows || shape[1] != cols {
		return mat{}, fmt.Errorf("tensor %s: expected shape [%d %d], got %v", name, rows, cols, shape)
	}
	return mat{rows: rows, cols: cols, data: data}, nil
}

func loadVec(f *checkpoint.File, name string, n int) ([]float32, error) {
	data, shape, err := f.Tensor(name)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 || shape[0] != n {
		return nil, fmt.Errorf("tensor %s: expected shape [%d], got %v", name, n, shape)
	}
	return data, nil
}

func (m *cbow) TrgVocabSize() int        { return m.trgVocab.Size() }
func (m *cbow) EvalFilters() []string    { return append([]string(nil), m.filters...) }
func (m *cbow) SupportsBeamSearch() bool { return true }

func (m *cbow) EncodeSource(line string) []int {
	return m.srcVocab.EncodeLine(line, true)
}

func (m *cbow) DecodeTarget(ids []int) string {
	return m.trgVocab.Decode(ids)
}

// LogProbs computes the log-softmax over the target vocabulary for the
// token following prefix.
func (m *cbow) LogProbs(src []int, prefix []int) ([]float64, error) {
	prev := vocab.BosID
	if len(prefix) > 0 {
		prev = prefix[len(prefix)-1]
	}
	if prev < 0 || prev >= m.trgEmb.rows {
		return nil, fmt.Errorf("target token %d out of range", prev)
	}

	ctx := m.sourceContext(src)
	prevEmb := m.trgEmb.row(prev)

	hidden := make([]float64, m.hiddenDim)
	for i := 0; i < m.hiddenDim; i++ {
		sum := float64(m.bH[i])
		ws := m.wSrc.row(i)
		wt := m.wTrg.row(i)
		for j := 0; j < m.embDim; j++ {
			sum += float64(ws[j])*ctx[j] + float64(wt[j])*float64(prevEmb[j])
		}
		hidden[i] = math.Tanh(sum)
	}

	logits := make([]float64, m.trgVocab.Size())
	for v := range logits {
		sum := float64(m.bOut[v])
		wo := m.wOut.row(v)
		for i := 0; i < m.hiddenDim; i++ {
			sum += float64(wo[i]) * hidden[i]
		}
		logits[v] = sum
	}
	return logSoftmax(logits), nil
}

// sourceContext is the mean embedding of the source tokens. Out-of-range
// ids fall back to the unknown embedding.
func (m *cbow) sourceContext(src []int) []float64 {
	ctx := make([]float64, m.embDim)
	if len(src) == 0 {
		return ctx
	}
	for _, id := range src {
		if id < 0 || id >= m.srcEmb.rows {
			id = vocab.UnkID
		}
		emb := m.srcEmb.row(id)
		for j := 0; j < m.embDim; j++ {
			ctx[j] += float64(emb[j])
		}
	}
	inv := 1.0 / float64(len(src))
	for j := range ctx {
		ctx[j] *= inv
	}
	return ctx
}

func logSoftmax(logits []float64) []float64 {
	maxv := logits[0]
	for _, v := range logits[1:] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	for _, v := range logits {
		sum += math.Exp(v - maxv)
	}
	logZ := maxv + math.Log(sum)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = v - logZ
	}
	return out
}
