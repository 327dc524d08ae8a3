// Package wav is the WAV collaborator named in spec.md §6: it loads a
// RIFF/WAVE PCM file and exposes it as a mono PCM16 sample buffer, a
// sample rate, and the peak absolute amplitude observed while loading
// — the only things the pulse-recovery stage needs.
//
// Reading is delegated to github.com/go-audio/wav, grounded on the
// pack's flga-vnes and emer-auditory repos which both decode PCM audio
// through that library. Writing WAV is explicitly out of scope
// (spec.md Non-goals).
package wav

import (
	"io"

	"github.com/go-audio/wav"

	"github.com/pkg/errors"
)

// Audio is a loaded mono PCM16 capture, ready for pulse recovery.
type Audio struct {
	SampleRate uint32
	Samples    []int16
	Peak       uint16
}

// Load decodes r as a WAV file, downmixing multi-channel audio to mono
// by averaging channels, and computes the peak absolute sample value.
func Load(r io.ReadSeeker) (*Audio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "decoding WAV PCM data")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	samples := make([]int16, 0, len(buf.Data)/channels)
	var peak uint16

	for i := 0; i+channels <= len(buf.Data); i += channels {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i+c]
		}
		sample := int16(sum / channels)
		samples = append(samples, sample)

		abs := int(sample)
		if abs < 0 {
			abs = -abs
		}
		if uint16(abs) > peak {
			peak = uint16(abs)
		}
	}

	return &Audio{
		SampleRate: uint32(buf.Format.SampleRate),
		Samples:    samples,
		Peak:       peak,
	}, nil
}
