package checkpoint

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

// Builder assembles a BLC checkpoint in memory. It exists for packing
// tooling and test fixtures; the decoder itself only ever reads.
type Builder struct {
	options any
	names   []string
	tensors map[string]builderTensor
}

type builderTensor struct {
	shape []int
	data  []float32
}

// NewBuilder creates a Builder carrying the given training options. The
// options value is serialized into the index under the reserved key.
func NewBuilder(options any) *Builder {
	return &Builder{
		options: options,
		tensors: map[string]builderTensor{},
	}
}

// Add registers a tensor. The data length must match the shape product.
func (b *Builder) Add(name string, shape []int, data []float32) error {
	if name == optionsKey {
		return fmt.Errorf("tensor name %q is reserved", name)
	}
	if _, dup := b.tensors[name]; dup {
		return fmt.Errorf("duplicate tensor %q", name)
	}
	n := elemCount(shape)
	if n < 0 || n != len(data) {
		return fmt.Errorf("tensor %q: shape %v does not match %d elements", name, shape, len(data))
	}
	b.names = append(b.names, name)
	b.tensors[name] = builderTensor{shape: shape, data: data}
	return nil
}

// WriteFile serializes the checkpoint to path, overwriting any existing
// file. Tensors are laid out in sorted name order so output is
// deterministic.
func (b *Builder) WriteFile(path string) error {
	names := make([]string, len(b.names))
	copy(names, b.names)
	sort.Strings(names)

	index := make(map[string]any, len(names)+1)
	if b.options != nil {
		index[optionsKey] = b.options
	}

	var offset int64
	for _, name := range names {
		bt := b.tensors[name]
		end := offset + int64(len(bt.data))*4
		index[name] = TensorInfo{
			DType: "F32",
			Shape: bt.shape,
			Offs:  []int64{offset, end},
		}
		offset = end
	}

	indexBytes, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	hdr := encodeHeader(header{
		Major:     CurrentMajor,
		Minor:     CurrentMinor,
		IndexSize: uint64(len(indexBytes)),
	})
	if _, err := w.Write(hdr); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := w.Write(indexBytes); err != nil {
		_ = f.Close()
		return err
	}

	var scratch [4]byte
	for _, name := range names {
		for _, v := range b.tensors[name].data {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			if _, err := w.Write(scratch[:]); err != nil {
				_ = f.Close()
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
