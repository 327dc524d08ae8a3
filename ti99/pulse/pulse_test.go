package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareWave synthesizes the given number of cycles of a square wave at
// amplitude, halfPeriod samples per half-cycle.
func squareWave(cycles int, halfPeriod int, amplitude int16) []int16 {
	samples := make([]int16, 0, cycles*halfPeriod*2)
	for i := 0; i < cycles; i++ {
		for j := 0; j < halfPeriod; j++ {
			samples = append(samples, amplitude)
		}
		for j := 0; j < halfPeriod; j++ {
			samples = append(samples, -amplitude)
		}
	}
	return samples
}

func TestStreamRecoversAlternatingPulses(t *testing.T) {
	samples := squareWave(4, 50, 10000)
	s := NewStream(samples, 44100, 10000)

	var kinds []Kind
	for s.Next() {
		kinds = append(kinds, s.Pulse().Kind)
	}

	require.NotEmpty(t, kinds)
	for _, k := range kinds {
		assert.True(t, k == Positive || k == Negative, "unexpected kind %v", k)
	}
}

func TestPulseDurationIsInTStates(t *testing.T) {
	samples := squareWave(2, 100, 10000)
	s := NewStream(samples, 3_500_000, 10000)

	require.True(t, s.Next())
	p := s.Pulse()
	// At the reference clock rate, duration in T-states equals the
	// sample count directly.
	assert.InDelta(t, 100, p.Duration, 3)
}

func TestIsSignal(t *testing.T) {
	assert.False(t, Pulse{Kind: Silence}.IsSignal())
	assert.True(t, Pulse{Kind: Positive}.IsSignal())
	assert.True(t, Pulse{Kind: Negative}.IsSignal())
}

func TestEmptyStreamProducesNoPulses(t *testing.T) {
	s := NewStream(nil, 44100, 1000)
	assert.False(t, s.Next())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "silence", Silence.String())
	assert.Equal(t, "positive", Positive.String())
	assert.Equal(t, "negative", Negative.String())
}
