package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ti99tape/ti99/pulse"
)

func TestDecodeNoSyncOnSilence(t *testing.T) {
	samples := make([]int16, 1000) // silence throughout
	stream := pulse.NewStream(samples, 44100, 10000)

	_, err := NewDecoder(stream).Decode()
	require.Error(t, err)

	de, ok := err.(*DecodeError)
	require.True(t, ok)
	assert.Equal(t, NoSync, de.Kind)
}

func TestDecodeFailsWhenBothCopiesAreTruncated(t *testing.T) {
	data := []byte("checksum test data")
	durations := buildPulses(t, data)

	// Cut the stream off partway through the first copy of the first
	// block: neither copy can be read in full, so reconciliation has
	// nothing usable and must report a failure.
	truncated := durations[:NumberOfSyncPulses+(len(durations)-NumberOfSyncPulses)/4]

	samples := synthesize(truncated, 44100)
	stream := pulse.NewStream(samples, 44100, 10000)

	_, err := NewDecoder(stream).Decode()
	require.Error(t, err)
}

func TestDecodeEmptyStreamAfterSyncIsError(t *testing.T) {
	durations := make([]uint64, 0, NumberOfSyncPulses)
	for i := 0; i < NumberOfSyncPulses; i++ {
		durations = append(durations, uint64(ZeroPulseLength))
	}
	samples := synthesize(durations, 44100)
	stream := pulse.NewStream(samples, 44100, 10000)

	_, err := NewDecoder(stream).Decode()
	assert.Error(t, err)
}
