package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ti99tape/ti99/pulse"
)

// synthesize renders a sequence of pulse durations, given in T-states,
// as PCM16 samples at sampleRate alternating sign each pulse -- the
// inverse of pulse.Stream's recovery, used to round-trip encoder output
// back through the real decoder without going via a TZX file.
func synthesize(durations []uint64, sampleRate uint32) []int16 {
	const amplitude = 10000
	const referenceClockHz = 3_500_000

	samples := make([]int16, 0, len(durations))
	sign := int16(1)
	for _, d := range durations {
		n := int(d * uint64(sampleRate) / referenceClockHz)
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			samples = append(samples, sign*amplitude)
		}
		sign = -sign
	}
	// pulse.Stream only emits a pulse at the sign change that ends it,
	// so close the last pulse with one sample of the opposite sign.
	samples = append(samples, sign*amplitude)
	return samples
}

// buildPulses frames data exactly as Encoder.Encode does in
// PulseSequence mode, but returns the pilot + data pulse durations
// directly instead of writing them to a TZX container.
func buildPulses(t *testing.T, data []byte) []uint64 {
	t.Helper()

	e := &Encoder{mode: PulseSequence, first: true}

	numBlocks := (len(data) + BlockDataSize - 1) / BlockDataSize
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

	durations := make([]uint64, 0, NumberOfSyncPulses+len(e.pulses))
	for i := 0; i < NumberOfSyncPulses; i++ {
		durations = append(durations, uint64(ZeroPulseLength))
	}
	for _, p := range e.pulses {
		durations = append(durations, uint64(p))
	}
	return durations
}

func decodeRoundTrip(t *testing.T, data []byte, sampleRate uint32) ([]byte, error) {
	t.Helper()
	durations := buildPulses(t, data)
	samples := synthesize(durations, sampleRate)
	stream := pulse.NewStream(samples, sampleRate, 10000)
	return NewDecoder(stream).Decode()
}

func TestRoundTripSingleBlock(t *testing.T) {
	data := []byte("HELLO TI99 WORLD")
	got, err := decodeRoundTrip(t, data, 44100)
	require.NoError(t, err)

	want := make([]byte, BlockDataSize)
	copy(want, data)
	assert.Equal(t, want, got)
}

func TestRoundTripMultipleBlocks(t *testing.T) {
	data := make([]byte, BlockDataSize*3+10)
	for i := range data {
		data[i] = byte(i)
	}
	got, err := decodeRoundTrip(t, data, 44100)
	require.NoError(t, err)
	assert.Len(t, got, BlockDataSize*4)
	assert.Equal(t, data, got[:len(data)])
}

func TestRoundTripEmptyFile(t *testing.T) {
	got, err := decodeRoundTrip(t, nil, 44100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundTripAtDifferentSampleRate(t *testing.T) {
	data := []byte("sample rate independence")
	got, err := decodeRoundTrip(t, data, 22050)
	require.NoError(t, err)

	want := make([]byte, BlockDataSize)
	copy(want, data)
	assert.Equal(t, want, got)
}

func TestChooseErrorPicksLowerOrdinal(t *testing.T) {
	crc := newError(CrcError, "crc")
	noSync := newError(NoSync, "no sync")
	assert.Equal(t, crc, chooseError(crc, noSync))
	assert.Equal(t, crc, chooseError(noSync, crc))
}
