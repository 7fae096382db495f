// Package dataset turns split definitions into ordered batches of encoded
// source sequences. Inference never carries targets and never shuffles, so
// batch order maps straight back to input order.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// NewSplit is the synthetic split name used for ad-hoc source mappings.
const NewSplit = "new"

// Batch is a fixed-size group of encoded source examples. Indices carries
// each example's position in the original input.
type Batch struct {
	Indices []int
	Sources [][]int
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Sources)
}

// Encoder encodes one raw source line into token ids. The first ensemble
// member provides it.
type Encoder interface {
	EncodeSource(line string) []int
}

// ReadLines loads the raw source lines of a split file.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// MakeBatches encodes lines in order and groups them into batches of at
// most batchSize examples. Zero lines yields zero batches.
func MakeBatches(lines []string, enc Encoder, batchSize int) ([]Batch, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", batchSize)
	}

	var batches []Batch
	for start := 0; start < len(lines); start += batchSize {
		end := start + batchSize
		if end > len(lines) {
			end = len(lines)
		}
		batch := Batch{
			Indices: make([]int, 0, end-start),
			Sources: make([][]int, 0, end-start),
		}
		for i := start; i < end; i++ {
			batch.Indices = append(batch.Indices, i)
			batch.Sources = append(batch.Sources, enc.EncodeSource(lines[i]))
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// ParseSourceMapping parses an explicit "key:path[,key:path...]" mapping
// into its components. The mapping is decoded as the synthetic "new"
// split.
func ParseSourceMapping(spec string) (map[string]string, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty source mapping")
	}
	out := map[string]string{}
	for _, part := range strings.Split(spec, ",") {
		key, path, ok := strings.Cut(part, ":")
		if !ok || key == "" || path == "" {
			return nil, fmt.Errorf("invalid source mapping %q (want key:path)", part)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate source key %q", key)
		}
		out[key] = path
	}
	return out, nil
}

// PrimarySource picks the path decoded from a source mapping: the "src"
// key when present, otherwise the lexically first key so the choice is
// deterministic.
func PrimarySource(mapping map[string]string) string {
	if path, ok := mapping["src"]; ok {
		return path
	}
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return mapping[keys[0]]
}
