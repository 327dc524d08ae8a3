// Package titape reads the .titape container format: a raw byte stream
// with a 20-byte header, the first 7 bytes of which are the ASCII
// signature "TI-TAPE". The header is stripped before the remaining
// bytes are handed to the tape encoder/decoder as the raw tape byte
// stream.
//
// Grounded on spec.md §6's ".titape collaborator interface"; the
// header-skip itself is recovered from original_source/src/main.cc,
// which reads and discards the same 20 bytes before encoding/decoding.
package titape

import (
	"io"

	"github.com/pkg/errors"
)

// HeaderSize is the size, in bytes, of the .titape container header.
const HeaderSize = 20

// Signature is the ASCII magic that opens every .titape header.
const Signature = "TI-TAPE"

// Read validates r's .titape header and returns the raw tape bytes
// that follow it.
func Read(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "reading .titape header")
	}

	if string(header[:len(Signature)]) != Signature {
		return nil, errors.Errorf("not a .titape file: expected signature %q, got %q", Signature, header[:len(Signature)])
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading .titape payload")
	}
	return data, nil
}

// Write emits a .titape header followed by data. The header beyond the
// signature is zero-filled: the source format has no other fields this
// toolkit populates.
func Write(w io.Writer, data []byte) error {
	header := make([]byte, HeaderSize)
	copy(header, Signature)
	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing .titape header")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "writing .titape payload")
	}
	return nil
}
