package binary

import (
	"bytes"
)

// Writer provides buffered writing utilities for WASM binary encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// NewWriterSize creates a Writer with room for n bytes.
func NewWriterSize(n int) *Writer {
	return &Writer{buf: bytes.NewBuffer(make([]byte, 0, n))}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU64 writes an unsigned LEB128 encoded uint64.
func (w *Writer) WriteU64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			break
		}
	}
}

// WriteName writes a length-prefixed byte string.
func (w *Writer) WriteName(s string) {
	w.WriteU64(uint64(len(s)))
	w.buf.WriteString(s)
}
