// Package filters implements the deterministic post-processing transforms
// applied to decoded hypotheses, such as reversing BPE or sentencepiece
// segmentation.
package filters

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a pure text-to-text transform.
type Filter func(string) string

var (
	segmentRe = regexp.MustCompile(` *<.*?:(.*?)>`)
	hyphenRe  = regexp.MustCompile(` @-@ `)
)

// known is the closed set of recognized filter names.
var known = map[string]Filter{
	"de-bpe": func(s string) string {
		return strings.TrimSuffix(strings.ReplaceAll(s, "@@ ", ""), "@@")
	},
	"de-spm": func(s string) string {
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, "▁", " ")
		return strings.TrimSpace(s)
	},
	"de-segment": func(s string) string {
		return segmentRe.ReplaceAllString(s, "$1")
	},
	"de-hyphen": func(s string) string {
		return hyphenRe.ReplaceAllString(s, "-")
	},
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
}

// Chain applies an ordered list of filters to hypothesis strings. The zero
// variant returned by Identity applies nothing; callers select one of the
// two variants once at setup rather than branching per call.
type Chain struct {
	names []string
	fns   []Filter
}

// NewChain builds a chain from filter names, applied in declared order.
// Unknown names are a construction-time error.
func NewChain(names []string) (*Chain, error) {
	c := &Chain{
		names: make([]string, 0, len(names)),
		fns:   make([]Filter, 0, len(names)),
	}
	for _, name := range names {
		fn, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", name)
		}
		c.names = append(c.names, name)
		c.fns = append(c.fns, fn)
	}
	return c, nil
}

// Identity returns the no-op chain.
func Identity() *Chain {
	return &Chain{}
}

// IsIdentity reports whether the chain applies no transforms.
func (c *Chain) IsIdentity() bool {
	return len(c.fns) == 0
}

// Names returns the declared filter names in order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// ApplyLine runs every filter over a single string in order.
func (c *Chain) ApplyLine(s string) string {
	for _, fn := range c.fns {
		s = fn(s)
	}
	return s
}

// Apply runs the chain over each line, returning a same-length list.
func (c *Chain) Apply(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = c.ApplyLine(line)
	}
	return out
}
