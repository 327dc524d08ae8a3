package tape

import (
	"fmt"

	"github.com/pkg/errors"

	"ti99tape/ti99/tzx"
)

const (
	// ZeroPulseLength is the duration, in T-states, of a '0' bit's single
	// pulse, and the combined duration of a '1' bit's two shorter pulses
	// (ZeroPulseLength/2 and the remainder).
	ZeroPulseLength uint16 = 2539

	// NumberOfSyncPulses is the length of the pilot tone that precedes
	// every file: 768 pilot bytes' worth of zero-bit pulses.
	NumberOfSyncPulses = 768 * 8

	// maxBlocksPerFile bounds a file's block count byte to a single byte.
	maxBlocksPerFile = 255
)

// DataBlockMode selects how Encoder emits a file's bitstream.
type DataBlockMode int

const (
	// PulseSequence emits a TZX Pure Tone block for the pilot followed
	// by Pulse Sequence blocks for the framed data.
	PulseSequence DataBlockMode = iota
	// GeneralizedData emits a single TZX Generalized Data block
	// covering both pilot and framed data via symbol tables.
	GeneralizedData
)

// Encoder packs raw bytes into the TI-99/4A tape block format (leader,
// sync, data mark, duplicated blocks, checksums) and emits them to a
// tzx.Writer either as raw pulses or as a TZX generalized-data block.
//
// Grounded on T-Pau/ti99tape's TI99TapeEncoder.cc/h.
type Encoder struct {
	tzx  *tzx.Writer
	mode DataBlockMode

	first bool

	data   []byte
	pulses []uint16
}

// NewEncoder creates an Encoder that appends TZX blocks to w.
func NewEncoder(w *tzx.Writer, mode DataBlockMode) *Encoder {
	return &Encoder{tzx: w, mode: mode, first: true}
}

// EncodeFiles encodes each byte slice in files as a separate tape file,
// writing an inter-file pause before the pilot tone of every file after
// the first.
func (e *Encoder) EncodeFiles(files [][]byte) error {
	for _, f := range files {
		if err := e.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

// Encode packs data into one framed tape file and emits it.
func (e *Encoder) Encode(data []byte) error {
	numBlocks := (len(data) + BlockDataSize - 1) / BlockDataSize
	if numBlocks > maxBlocksPerFile {
		return errors.Errorf("file too long: %d blocks exceeds maximum of %d", numBlocks, maxBlocksPerFile)
	}

	if !e.first {
		// Inter-file gap: a short pause lets an emulator settle the pulse
		// level between files before the next pilot tone starts.
		if err := e.tzx.AddPause(1000); err != nil {
			return errors.Wrap(err, "writing inter-file pause")
		}
	}
	e.first = false

	e.data = e.data[:0]
	e.pulses = e.pulses[:0]

	e.addByte(0xff)
	e.addByte(byte(numBlocks))
	e.addByte(byte(numBlocks))

	for i := 0; i < numBlocks; i++ {
		start := i * BlockDataSize
		end := start + BlockDataSize
		if end > len(data) {
			end = len(data)
		}
		e.addBlock(data[start:end])
		e.addBlock(data[start:end])
	}

	switch e.mode {
	case GeneralizedData:
		return e.emitGeneralizedData()
	default:
		return e.emitPulseSequence()
	}
}

// addBlock frames one logical block: 8 sync bytes, the 0xFF data mark,
// 64 data bytes (zero-padded if fewer remain), and a checksum.
func (e *Encoder) addBlock(data []byte) {
	for i := 0; i < 8; i++ {
		e.addByte(0)
	}
	e.addByte(0xff)

	var checksum byte
	for i := 0; i < BlockDataSize; i++ {
		var b byte
		if i < len(data) {
			b = data[i]
		}
		e.addByte(b)
		checksum += b
	}
	e.addByte(checksum)
}

// addByte records one byte, either buffered as raw data (generalized
// data mode) or expanded directly into pulse lengths (pulse-sequence
// mode), most significant bit first.
func (e *Encoder) addByte(b byte) {
	if e.mode == GeneralizedData {
		e.data = append(e.data, b)
		return
	}

	for i := 0; i < 8; i++ {
		if b&(1<<(7-uint(i))) != 0 {
			half := ZeroPulseLength / 2
			e.pulses = append(e.pulses, half, ZeroPulseLength-half)
		} else {
			e.pulses = append(e.pulses, ZeroPulseLength)
		}
	}
}

func (e *Encoder) emitPulseSequence() error {
	if err := e.tzx.AddPureTone(ZeroPulseLength, NumberOfSyncPulses); err != nil {
		return errors.Wrap(err, "writing pilot tone")
	}
	return e.tzx.AddPulseSequence(e.pulses)
}

func (e *Encoder) emitGeneralizedData() error {
	half := ZeroPulseLength / 2
	pilotSymbols := []tzx.SymbolDefinition{
		{PulseLengths: []uint16{ZeroPulseLength}},
	}
	pilotRuns := []tzx.PilotRun{
		{Symbol: 0, Repetitions: NumberOfSyncPulses},
	}
	dataSymbols := []tzx.SymbolDefinition{
		{PulseLengths: []uint16{ZeroPulseLength}},
		{PulseLengths: []uint16{half, ZeroPulseLength - half}},
	}

	block, err := tzx.NewGeneralizedDataBlock(0, pilotSymbols, pilotRuns, dataSymbols, uint32(len(e.data))*8, e.data)
	if err != nil {
		return fmt.Errorf("building generalized data block: %w", err)
	}
	return e.tzx.AddGeneralizedData(block)
}
