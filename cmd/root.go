// Package cmd implements the ti99tape command-line interface: the
// external, format-detecting, file-handling collaborator spec.md §6
// names but excludes from the core.
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ti99tape/format"
)

var rootCmd = &cobra.Command{
	Use:   "ti99tape",
	Short: "Convert TI-99/4A cassette tape images between raw, WAV and TZX",
	Long: `ti99tape converts between three representations of a TI-99/4A cassette
tape recording: a raw byte image, a PCM audio capture, and a TZX file
an emulator can replay.`,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// detectFormat resolves a format either from an explicit override or,
// if override is empty, from filename's extension.
func detectFormat(override, filename string) format.Type {
	if override != "" {
		t, err := format.ByName(strings.ToLower(override))
		if err != nil {
			return format.Unknown
		}
		return t
	}
	return format.ByFilename(filename)
}
