package binary

import (
	"github.com/wippyai/wasm-sourcemap/errors"
)

// maxVarintShift bounds a 64-bit LEB128 value to ten 7-bit groups.
const maxVarintShift = 70

// Reader walks a byte slice with position tracking and WASM-specific read methods.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt creates a new Reader positioned at pos.
func NewReaderAt(data []byte, pos int) *Reader {
	return &Reader{data: data, pos: pos}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// EOF reports whether the reader has consumed all input.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.data)
}

// Seek moves the reader to an absolute position.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return errors.Truncated(errors.PhaseScan, pos, "seek target")
	}
	r.pos = pos
	return nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return 0, errors.Truncated(errors.PhaseScan, r.pos, "byte")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errors.Truncated(errors.PhaseScan, r.pos, "byte range")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	start := r.pos
	var result uint64
	var shift uint
	for {
		if r.pos >= len(r.data) {
			return 0, errors.Truncated(errors.PhaseScan, start, "varuint")
		}
		b := r.data[r.pos]
		r.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= maxVarintShift {
			return 0, errors.Overflow(errors.PhaseScan, start, "varuint", "u64")
		}
	}
}

// ReadU32 reads an unsigned LEB128 encoded uint32.
func (r *Reader) ReadU32() (uint32, error) {
	start := r.pos
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, errors.Overflow(errors.PhaseScan, start, v, "u32")
	}
	return uint32(v), nil
}

// ReadName reads a length-prefixed byte string. The bytes are not checked
// for UTF-8 validity; custom section names are compared bytewise.
func (r *Reader) ReadName() (string, error) {
	length, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	data, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
