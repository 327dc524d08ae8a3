// Package tzx writes the subset of the TZX v1.20 cassette-image
// container format needed to replay a TI-99/4A tape: the magic header,
// Pure Tone, Pulse Sequence, and Generalized Data blocks, plus a Pause
// block for inter-file gaps.
//
// Grounded on T-Pau/ti99tape's TZX.cc/h, ported from an OutputFile
// wrapper over fwrite to storage.Writer, and cross-checked against the
// teacher's spectrum/tzx reader for block-ID and field-order
// conventions (little-endian throughout, block ID byte first).
//
// TZX reading is out of scope for this package; see DESIGN.md for why
// the teacher's TZX-reading code was not reused here.
package tzx

import (
	"math/bits"

	"github.com/pkg/errors"

	"ti99tape/storage"
)

const (
	blockPureTone        = 0x12
	blockPulseSequence   = 0x13
	blockPause           = 0x20
	blockGeneralizedData = 0x19

	// maxPulsesPerSequenceBlock is the largest pulse count a single
	// Pulse Sequence block can carry; longer runs are fragmented.
	maxPulsesPerSequenceBlock = 255
)

// Writer appends correctly framed TZX blocks to an underlying binary
// sink. It owns that sink for its lifetime.
type Writer struct {
	out *storage.Writer
}

// NewWriter creates a Writer and immediately writes the TZX v1.20
// magic header: "ZXTape!", 0x1A, major version 1, minor version 20.
func NewWriter(out *storage.Writer) *Writer {
	w := &Writer{out: out}
	w.out.WriteString("ZXTape!")
	w.out.WriteByte(0x1a)
	w.out.WriteByte(1)
	w.out.WriteByte(20)
	return w
}

// Close flushes any buffered output.
func (w *Writer) Close() error {
	return w.out.Flush()
}

// AddPureTone appends a Pure Tone block (id 0x12): a single pulse
// length repeated the given number of times, used for the pilot tone.
func (w *Writer) AddPureTone(pulseLength uint16, repetitions uint16) error {
	w.out.WriteByte(blockPureTone)
	w.out.WriteShort(pulseLength)
	w.out.WriteShort(repetitions)
	return w.out.Err()
}

// AddPulseSequence appends one or more Pulse Sequence blocks (id 0x13)
// covering pulses, in order. Each block carries at most 255 pulse
// lengths; longer sequences are split across consecutive blocks.
func (w *Writer) AddPulseSequence(pulses []uint16) error {
	for i := 0; i < len(pulses); i += maxPulsesPerSequenceBlock {
		end := i + maxPulsesPerSequenceBlock
		if end > len(pulses) {
			end = len(pulses)
		}
		chunk := pulses[i:end]

		w.out.WriteByte(blockPulseSequence)
		w.out.WriteByte(byte(len(chunk)))
		for _, p := range chunk {
			w.out.WriteShort(p)
		}
	}
	return w.out.Err()
}

// AddPause appends a Pause (id 0x20) block: pauseMs milliseconds of
// silence, used as the inter-file gap between successive tape files.
func (w *Writer) AddPause(pauseMs uint16) error {
	w.out.WriteByte(blockPause)
	w.out.WriteShort(pauseMs)
	return w.out.Err()
}

// SymbolDefinition is one entry of a Generalized Data block's pilot or
// data symbol table: a flags byte (always 0 for the symbols this
// package emits) and the pulse lengths that make up that symbol.
type SymbolDefinition struct {
	Flags        uint8
	PulseLengths []uint16
}

// PilotRun is one run-length entry of a Generalized Data block's pilot
// sequence: "play symbol Symbol, Repetitions times".
type PilotRun struct {
	Symbol      uint8
	Repetitions uint16
}

// GeneralizedDataBlock is a fully validated, ready-to-serialize TZX
// Generalized Data block (id 0x19).
type GeneralizedDataBlock struct {
	pauseAfter uint16

	pilotSymbols    []SymbolDefinition
	pilotPulseWidth uint8
	pilotRuns       []PilotRun

	dataSymbols    []SymbolDefinition
	dataPulseWidth uint8
	dataSize       uint32
	data           []byte
}

// NewGeneralizedDataBlock validates and builds a Generalized Data
// block. dataSize is the number of data *symbols* (not bytes); data
// must be exactly ceil(bitsPerSymbol*dataSize/8) bytes long,
// where bitsPerSymbol = ceil(log2(len(dataSymbols))).
func NewGeneralizedDataBlock(pauseAfter uint16, pilotSymbols []SymbolDefinition, pilotRuns []PilotRun, dataSymbols []SymbolDefinition, dataSize uint32, data []byte) (*GeneralizedDataBlock, error) {
	b := &GeneralizedDataBlock{pauseAfter: pauseAfter}

	if len(pilotRuns) > 0 {
		if len(pilotSymbols) > 255 {
			return nil, errors.New("too many pilot symbols")
		}
		width, err := maxPulseWidth(pilotSymbols)
		if err != nil {
			return nil, errors.Wrap(err, "pilot symbols")
		}
		b.pilotSymbols = pilotSymbols
		b.pilotRuns = pilotRuns
		b.pilotPulseWidth = width
	}

	if dataSize > 0 {
		if len(dataSymbols) > 255 {
			return nil, errors.New("too many data symbols")
		}
		bitsPerSymbol := bitsNeeded(len(dataSymbols))
		if bitsPerSymbol > 8 {
			return nil, errors.New("too many data symbols")
		}
		width, err := maxPulseWidth(dataSymbols)
		if err != nil {
			return nil, errors.Wrap(err, "data symbols")
		}

		expected := (uint64(bitsPerSymbol)*uint64(dataSize) + 7) / 8
		if uint64(len(data)) != expected {
			return nil, errors.Errorf("data length %d does not match expected %d bytes for %d symbols", len(data), expected, dataSize)
		}

		b.dataSymbols = dataSymbols
		b.dataPulseWidth = width
		b.dataSize = dataSize
		b.data = data
	}

	if _, err := b.length(); err != nil {
		return nil, err
	}

	return b, nil
}

func maxPulseWidth(symbols []SymbolDefinition) (uint8, error) {
	var width int
	for _, s := range symbols {
		if len(s.PulseLengths) > 255 {
			return 0, errors.New("too many pulses in symbol")
		}
		if len(s.PulseLengths) > width {
			width = len(s.PulseLengths)
		}
	}
	return uint8(width), nil
}

// bitsNeeded returns ceil(log2(n)) for n >= 1, matching TZX's
// definition of bits-per-symbol for a symbol table of the given size.
func bitsNeeded(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

func (b *GeneralizedDataBlock) length() (uint32, error) {
	length := uint64(14) +
		uint64(len(b.pilotSymbols))*(1+uint64(b.pilotPulseWidth)*2) +
		uint64(len(b.dataSymbols))*(1+uint64(b.dataPulseWidth)*2) +
		uint64(len(b.pilotRuns))*3 +
		uint64(len(b.data))

	if length > 0xffffffff {
		return 0, errors.New("generalized data block too long")
	}
	return uint32(length), nil
}

// AddGeneralizedData appends a Generalized Data block (id 0x19). The
// pilot-symbol-count field is written as len(pilotRuns), the run-length
// entry count, faithfully reproducing the source implementation; TZX
// 1.20 defines this field as TOTP (total pilot symbols played), so
// other TZX writers may disagree — see DESIGN.md's Open Question note.
func (w *Writer) AddGeneralizedData(b *GeneralizedDataBlock) error {
	length, err := b.length()
	if err != nil {
		return err
	}

	w.out.WriteByte(blockGeneralizedData)
	w.out.WriteLong(length)
	w.out.WriteShort(b.pauseAfter)
	w.out.WriteLong(uint32(len(b.pilotRuns)))
	w.out.WriteByte(b.pilotPulseWidth)
	w.out.WriteByte(uint8(len(b.pilotSymbols)))
	w.out.WriteLong(b.dataSize)
	w.out.WriteByte(b.dataPulseWidth)
	w.out.WriteByte(uint8(len(b.dataSymbols)))

	writeSymbolDefinitions(w.out, b.pilotPulseWidth, b.pilotSymbols)
	for _, run := range b.pilotRuns {
		w.out.WriteByte(run.Symbol)
		w.out.WriteShort(run.Repetitions)
	}
	writeSymbolDefinitions(w.out, b.dataPulseWidth, b.dataSymbols)
	w.out.WriteBytes(b.data)

	return w.out.Err()
}

func writeSymbolDefinitions(out *storage.Writer, width uint8, symbols []SymbolDefinition) {
	for _, s := range symbols {
		out.WriteByte(s.Flags)
		for i := 0; i < int(width); i++ {
			var p uint16
			if i < len(s.PulseLengths) {
				p = s.PulseLengths[i]
			}
			out.WriteShort(p)
		}
	}
}
