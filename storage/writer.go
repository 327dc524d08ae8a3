// Package storage provides a bounded, buffered binary Writer used to
// assemble the little-endian TZX container format without the caller
// reimplementing byte-order arithmetic.
package storage

import (
	"bufio"
	"io"
)

// Writer wraps a bufio.Writer, adding the fixed-width little-endian
// writes the TZX writer needs, and sticks to the first error any write
// encounters so callers only need to check Err() once at the end.
type Writer struct {
	w       *bufio.Writer
	err     error
	written int64
}

// NewWriter wraps w in a buffered Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Err returns the first error encountered by any Write call or Flush.
// Because writes are buffered, an error from the underlying writer may
// only surface once the buffer is flushed.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.written += int64(n)
	w.err = err
}

// WriteString writes the raw bytes of s, unterminated.
func (w *Writer) WriteString(s string) {
	w.write([]byte(s))
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) {
	w.write([]byte{b})
}

// WriteShort writes v as a little-endian uint16.
func (w *Writer) WriteShort(v uint16) {
	w.write([]byte{byte(v), byte(v >> 8)})
}

// WriteLong writes v as a little-endian uint32.
func (w *Writer) WriteLong(v uint32) {
	w.write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// WriteBytes writes b verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.write(b)
}

// Flush flushes the underlying buffered writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		w.err = err
	}
	return w.err
}
