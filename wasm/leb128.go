package wasm

import (
	"github.com/wippyai/wasm-sourcemap/wasm/internal/binary"
)

// LEB128 encoding/decoding utilities for WebAssembly binary format

// DecodeUint reads an unsigned LEB128 value starting at pos and returns it
// along with the position just past its last byte. Input that ends mid-value
// yields ErrTruncated; more than ten 7-bit groups yield ErrOverflow.
func DecodeUint(data []byte, pos int) (uint64, int, error) {
	r := binary.NewReaderAt(data, pos)
	v, err := r.ReadU64()
	if err != nil {
		return 0, pos, err
	}
	return v, r.Position(), nil
}

// EncodeUint encodes v as unsigned LEB128.
func EncodeUint(v uint64) []byte {
	w := binary.NewWriterSize(SizeUint(v))
	w.WriteU64(v)
	return w.Bytes()
}

// SizeUint returns the number of bytes EncodeUint(v) produces.
func SizeUint(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
