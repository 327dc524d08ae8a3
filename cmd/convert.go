package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ti99tape/format"
	"ti99tape/storage"
	"ti99tape/ti99/pulse"
	"ti99tape/ti99/tape"
	"ti99tape/ti99/tzx"
	"ti99tape/titape"
	"ti99tape/wav"
)

var (
	fromMediaType string
	toMediaType   string
	targetSystem  string
	generalized   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a TI-99/4A tape image between WAV, .titape and TZX",
	Long: `convert reads the input file, recovers the raw TI-99/4A tape byte
stream from it, and re-encodes that byte stream in the output format.

Supported inputs:  WAV audio capture, .titape container, raw bytes.
Supported outputs: TZX (for emulator playback), .titape, raw bytes.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0], args[1])
	},
}

func init() {
	convertCmd.Flags().StringVar(&fromMediaType, "from", "", "override input format (wav, titape, raw)")
	convertCmd.Flags().StringVar(&toMediaType, "to", "", "override output format (tzx, titape, raw)")
	convertCmd.Flags().StringVar(&targetSystem, "system", "ti99", "target system (currently only ti99 is implemented)")
	convertCmd.Flags().BoolVar(&generalized, "generalized-data", false, "emit a single TZX Generalized Data block instead of Pure Tone/Pulse Sequence blocks")
	rootCmd.AddCommand(convertCmd)
}

// runConvert loads the raw TI-99/4A byte stream out of inputPath,
// regardless of its container, then writes it back out in outputPath's
// format.
func runConvert(inputPath, outputPath string) error {
	data, err := loadTapeBytes(inputPath)
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	defer out.Close()

	switch detectFormat(toMediaType, outputPath) {
	case format.TZX:
		return writeTZX(out, data)
	case format.TITape:
		return titape.Write(out, data)
	default:
		_, err := out.Write(data)
		return errors.Wrap(err, "writing raw output")
	}
}

// loadTapeBytes recovers the raw, unframed TI-99/4A tape byte stream
// from inputPath, decoding it out of whichever container it is in.
func loadTapeBytes(inputPath string) ([]byte, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch detectFormat(fromMediaType, inputPath) {
	case format.WAV:
		audio, err := wav.Load(f)
		if err != nil {
			return nil, errors.Wrap(err, "decoding WAV")
		}
		stream := pulse.NewStream(audio.Samples, audio.SampleRate, audio.Peak)
		decoder := tape.NewDecoder(stream)
		data, err := decoder.Decode()
		if err != nil {
			return nil, errors.Wrap(err, "decoding tape signal")
		}
		return data, nil

	case format.TITape:
		data, err := titape.Read(f)
		if err != nil {
			return nil, err
		}
		return data, nil

	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.Wrap(err, "reading raw input")
		}
		return data, nil
	}
}

// writeTZX encodes data as one TI-99/4A tape file inside a fresh TZX
// container written to out.
func writeTZX(out *os.File, data []byte) error {
	mode := tape.PulseSequence
	if generalized {
		mode = tape.GeneralizedData
	}

	w := tzx.NewWriter(storage.NewWriter(out))
	encoder := tape.NewEncoder(w, mode)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding tape data: %w", err)
	}
	return w.Close()
}
