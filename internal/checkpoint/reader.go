package checkpoint

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"golang.org/x/sys/unix"
)

// File is an open BLC checkpoint. The data slice may be a read-only mapping;
// callers must Close the file to release it and must not retain slices into
// it afterwards. Tensor decodes into fresh memory, so decoded weights stay
// valid after Close.
type File struct {
	Path    string
	Major   uint16
	Minor   uint16
	options []byte
	tensors map[string]TensorInfo
	data    []byte
	full    []byte
	mmapped bool
}

// Open maps a BLC file read-only and validates its structure. If mmap is
// unavailable it falls back to ReadAt-based loading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	size := int(size64)
	if size < headerSize {
		return nil, ErrCorruptFile
	}

	// Prefer mmap where available for zero-copy tensor slices.
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		cf, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		cf.Path = path
		return cf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	cf, err := parseFileData(data, false)
	if err != nil {
		return nil, err
	}
	cf.Path = path
	return cf, nil
}

// OpenReaderAt loads and validates a BLC from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrCorruptFile
	}
	if string(data[:4]) != Magic {
		return nil, ErrInvalidMagic
	}
	hdr, ok := decodeHeader(data[:headerSize])
	if !ok {
		return nil, ErrCorruptFile
	}
	if hdr.Major != CurrentMajor {
		return nil, ErrUnsupportedMajor
	}
	if hdr.IndexSize == 0 || hdr.IndexSize > uint64(len(data)-headerSize) {
		return nil, ErrCorruptFile
	}

	indexBytes := data[headerSize : headerSize+int(hdr.IndexSize)]
	dataSection := data[headerSize+int(hdr.IndexSize):]

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(indexBytes, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse index: %v", ErrCorruptFile, err)
	}

	options := []byte(raw[optionsKey])
	delete(raw, optionsKey)

	tensors := make(map[string]TensorInfo, len(raw))
	for name, msg := range raw {
		var ti TensorInfo
		if err := json.Unmarshal(msg, &ti); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrCorruptFile, name, err)
		}
		if len(ti.Offs) != 2 || ti.Offs[0] < 0 || ti.Offs[1] < ti.Offs[0] {
			return nil, fmt.Errorf("%w: tensor %s: invalid data_offsets", ErrCorruptFile, name)
		}
		if ti.Offs[1] > int64(len(dataSection)) {
			return nil, fmt.Errorf("%w: tensor %s: offsets past end of data", ErrCorruptFile, name)
		}
		if ti.DType != "F32" {
			return nil, fmt.Errorf("%w: tensor %s: unsupported dtype %q", ErrCorruptFile, name, ti.DType)
		}
		n := elemCount(ti.Shape)
		if n < 0 || int64(n)*4 != ti.Offs[1]-ti.Offs[0] {
			return nil, fmt.Errorf("%w: tensor %s: shape does not match payload", ErrCorruptFile, name)
		}
		ti.Start = ti.Offs[0]
		ti.End = ti.Offs[1]
		tensors[name] = ti
	}

	return &File{
		Major:   hdr.Major,
		Minor:   hdr.Minor,
		options: options,
		tensors: tensors,
		data:    dataSection,
		full:    data,
		mmapped: mmapped,
	}, nil
}

// Options returns the raw training-options JSON stored in the index.
func (f *File) Options() []byte {
	return f.options
}

// TensorNames returns the tensor names in sorted order.
func (f *File) TensorNames() []string {
	names := make([]string, 0, len(f.tensors))
	for name := range f.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the index entry for a tensor.
func (f *File) Info(name string) (TensorInfo, bool) {
	ti, ok := f.tensors[name]
	return ti, ok
}

// Tensor decodes the named tensor into a freshly allocated float32 slice and
// returns it with its shape.
func (f *File) Tensor(name string) ([]float32, []int, error) {
	ti, ok := f.tensors[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	raw := f.data[ti.Start:ti.End]
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	shape := make([]int, len(ti.Shape))
	copy(shape, ti.Shape)
	return out, shape, nil
}

// Close releases the underlying mapping, if any.
func (f *File) Close() error {
	var err error
	if f.mmapped && f.full != nil {
		err = unix.Munmap(f.full)
	}
	f.data = nil
	f.full = nil
	return err
}
