// Package format detects the on-disk representation of a tape
// artifact — TI-Tape container, WAV audio, TZX container, or opaque
// raw bytes — either from a file extension, a declared system/format
// name, or by sniffing a magic-byte signature.
//
// Grounded on T-Pau/ti99tape's FileFormat.cc/h: the extension and name
// lookup tables are carried as package-level immutable maps (the
// REDESIGN FLAGS note on "global/static lookup tables"), and the
// signature scan fixes the source's negative-offset bug (§9) rather
// than reproducing it.
package format

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Type identifies a detected tape artifact format.
type Type int

const (
	// Raw is an opaque byte stream with no recognized framing.
	Raw Type = iota
	// TITape is a .titape container (ASCII "TI-TAPE" header).
	TITape
	// TZX is a TZX v1.x container.
	TZX
	// WAV is a RIFF/WAVE PCM audio file.
	WAV
	// Unknown is an explicitly named, but unrecognized, format.
	Unknown
)

// String names the format, matching the source's FileFormat::name.
func (t Type) String() string {
	switch t {
	case Raw:
		return "raw data"
	case TITape:
		return "TI-Tape"
	case TZX:
		return "TZX"
	case WAV:
		return "WAV"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

var extensions = map[string]Type{
	"tzx": TZX,
	"wav": WAV,
}

var names = map[string]Type{
	"raw":      Raw,
	"raw data": Raw,
	"titape":   TITape,
	"tzx":      TZX,
	"wav":      WAV,
	"unknown":  Unknown,
}

type signature struct {
	offset int
	value  []byte
	typ    Type
}

var signatures = []signature{
	{0, []byte("TI-TAPE"), TITape},
	{0, []byte("RIFF"), WAV},
	{0, []byte("ZXTape!\x1a"), TZX},
}

// matches reports whether data carries this signature at its offset. A
// negative offset counts from the end of data, e.g. -4 means "the last
// four bytes start here".
func (s signature) matches(data []byte) bool {
	var start int
	if s.offset >= 0 {
		start = s.offset
	} else {
		if -s.offset > len(data) {
			return false
		}
		start = len(data) + s.offset
	}

	if start+len(s.value) > len(data) {
		return false
	}

	for i, b := range s.value {
		if data[start+i] != b {
			return false
		}
	}
	return true
}

// DetectContents sniffs data's magic bytes against the known
// signatures and returns the matching Type, or Raw if nothing matches.
//
// system names the target system (e.g. "ti99", passed through from the
// CLI's --system flag) but, per the original source, is not consulted:
// there is currently only one signature table, shared by all systems.
func DetectContents(data []byte, system string) Type {
	for _, sig := range signatures {
		if sig.matches(data) {
			return sig.typ
		}
	}
	return Raw
}

// ByExtension maps a bare file extension (no leading dot) to a Type,
// defaulting to Raw for anything unrecognized.
func ByExtension(extension string) Type {
	if t, ok := extensions[strings.ToLower(extension)]; ok {
		return t
	}
	return Raw
}

// ByFilename derives a Type from filename's extension.
func ByFilename(filename string) Type {
	ext := filepath.Ext(filename)
	if ext == "" {
		return Raw
	}
	return ByExtension(strings.TrimPrefix(ext, "."))
}

// ByName looks up a Type by its canonical name (e.g. "wav", "tzx"),
// returning an error for anything not in the table.
func ByName(name string) (Type, error) {
	t, ok := names[strings.ToLower(name)]
	if !ok {
		return Unknown, errors.Errorf("unknown format %q", name)
	}
	return t, nil
}
