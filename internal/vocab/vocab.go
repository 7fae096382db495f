// Package vocab provides the token/id mapping shared by all models decoded
// together. The first four ids are reserved for the special markers.
package vocab

import (
	"fmt"
	"strings"
)

// Reserved ids, fixed across every vocabulary.
const (
	PadID = 0
	BosID = 1
	EosID = 2
	UnkID = 3
)

const (
	PadToken = "<pad>"
	BosToken = "<bos>"
	EosToken = "<eos>"
	UnkToken = "<unk>"
)

var specials = []string{PadToken, BosToken, EosToken, UnkToken}

// Vocab is an immutable ordered token list with reverse lookup.
type Vocab struct {
	tokens []string
	ids    map[string]int
}

// New builds a vocabulary from the words following the reserved markers.
func New(words []string) (*Vocab, error) {
	tokens := make([]string, 0, len(specials)+len(words))
	tokens = append(tokens, specials...)
	tokens = append(tokens, words...)

	ids := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		if _, dup := ids[tok]; dup {
			return nil, fmt.Errorf("duplicate token %q", tok)
		}
		ids[tok] = i
	}
	return &Vocab{tokens: tokens, ids: ids}, nil
}

// FromList builds a vocabulary from a full ordered token list, validating
// that the reserved markers occupy their fixed positions. Checkpoints store
// vocabularies in this form.
func FromList(tokens []string) (*Vocab, error) {
	if len(tokens) < len(specials) {
		return nil, fmt.Errorf("vocabulary too short: %d tokens", len(tokens))
	}
	for i, want := range specials {
		if tokens[i] != want {
			return nil, fmt.Errorf("token %d: expected %q, got %q", i, want, tokens[i])
		}
	}
	return New(tokens[len(specials):])
}

// Size returns the number of tokens including the reserved markers.
func (v *Vocab) Size() int {
	return len(v.tokens)
}

// Tokens returns the full ordered token list.
func (v *Vocab) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Token returns the surface form for an id, or the unknown marker when the
// id is out of range.
func (v *Vocab) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return UnkToken
	}
	return v.tokens[id]
}

// ID returns the id for a token, falling back to the unknown id.
func (v *Vocab) ID(tok string) int {
	if id, ok := v.ids[tok]; ok {
		return id
	}
	return UnkID
}

// EncodeLine tokenizes a whitespace-separated line into ids, optionally
// appending the end-of-sequence marker.
func (v *Vocab) EncodeLine(line string, addEOS bool) []int {
	fields := strings.Fields(line)
	ids := make([]int, 0, len(fields)+1)
	for _, f := range fields {
		ids = append(ids, v.ID(f))
	}
	if addEOS {
		ids = append(ids, EosID)
	}
	return ids
}

// Decode renders ids as a space-joined string. Reserved markers are
// dropped and decoding stops at the first end-of-sequence id.
func (v *Vocab) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if id == EosID {
			break
		}
		if id == PadID || id == BosID {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.Token(id))
	}
	return b.String()
}
