// Package checkpoint implements the BLC container format used to store
// trained model weights alongside their training options.
//
// A BLC file is a fixed binary header followed by a JSON index and raw
// little-endian tensor data:
//
//	magic "BLC\x00" | major u16 | minor u16 | index size u64 | index JSON | data
//
// The index maps tensor names to dtype, shape and byte offsets relative to
// the start of the data section. The reserved "__options__" key carries the
// training options the model was built with (model type, filter list,
// vocabularies).
package checkpoint

import (
	"encoding/binary"
	"errors"
)

const (
	Magic = "BLC\x00"

	// CurrentMajor changes only on breaking format revisions.
	CurrentMajor uint16 = 1
	CurrentMinor uint16 = 0

	headerSize = 16
	optionsKey = "__options__"
)

var (
	ErrInvalidMagic     = errors.New("invalid BLC magic")
	ErrUnsupportedMajor = errors.New("unsupported BLC major version")
	ErrCorruptFile      = errors.New("corrupt BLC file")
	ErrTensorNotFound   = errors.New("tensor not found")
)

type header struct {
	Major     uint16
	Minor     uint16
	IndexSize uint64
}

func decodeHeader(buf []byte) (header, bool) {
	if len(buf) < headerSize || string(buf[:4]) != Magic {
		return header{}, false
	}
	return header{
		Major:     binary.LittleEndian.Uint16(buf[4:6]),
		Minor:     binary.LittleEndian.Uint16(buf[6:8]),
		IndexSize: binary.LittleEndian.Uint64(buf[8:16]),
	}, true
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Major)
	binary.LittleEndian.PutUint16(buf[6:8], h.Minor)
	binary.LittleEndian.PutUint64(buf[8:16], h.IndexSize)
	return buf
}

// TensorInfo describes one tensor entry in the index. Offsets are relative
// to the start of the data section.
type TensorInfo struct {
	DType string  `json:"dtype"`
	Shape []int   `json:"shape"`
	Start int64   `json:"-"`
	End   int64   `json:"-"`
	Offs  []int64 `json:"data_offsets"`
}

func elemCount(shape []int) int {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return -1
		}
		n *= d
	}
	return n
}
