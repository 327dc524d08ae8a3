package tape

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ti99tape/storage"
	"ti99tape/ti99/tzx"
)

func TestEncodeRejectsOversizedFile(t *testing.T) {
	var buf bytes.Buffer
	w := tzx.NewWriter(storage.NewWriter(&buf))
	e := NewEncoder(w, PulseSequence)

	data := make([]byte, BlockDataSize*maxBlocksPerFile+1)
	err := e.Encode(data)
	assert.Error(t, err)
}

func TestEncodeWritesTZXHeader(t *testing.T) {
	var buf bytes.Buffer
	w := tzx.NewWriter(storage.NewWriter(&buf))
	e := NewEncoder(w, PulseSequence)

	require.NoError(t, e.Encode([]byte("hi")))
	require.NoError(t, w.Close())

	got := buf.Bytes()
	require.True(t, len(got) > 10)
	assert.Equal(t, []byte("ZXTape!\x1a\x01\x14"), got[:10])
}

func TestEncodeFilesAddsInterFileGap(t *testing.T) {
	var single, double bytes.Buffer

	w1 := tzx.NewWriter(storage.NewWriter(&single))
	require.NoError(t, NewEncoder(w1, PulseSequence).Encode([]byte("a")))
	require.NoError(t, w1.Close())

	w2 := tzx.NewWriter(storage.NewWriter(&double))
	require.NoError(t, NewEncoder(w2, PulseSequence).EncodeFiles([][]byte{[]byte("a"), []byte("a")}))
	require.NoError(t, w2.Close())

	// double is one header, two copies of single's body, and a 3-byte
	// Pause block for the inter-file gap.
	pauseBlockSize := 3
	assert.Equal(t, 2*single.Len()-10+pauseBlockSize, double.Len())
}

func TestEncodeGeneralizedDataMode(t *testing.T) {
	var buf bytes.Buffer
	w := tzx.NewWriter(storage.NewWriter(&buf))
	e := NewEncoder(w, GeneralizedData)

	require.NoError(t, e.Encode([]byte("generalized data mode")))
	require.NoError(t, w.Close())

	got := buf.Bytes()
	require.True(t, len(got) > 11)
	assert.Equal(t, byte(0x19), got[10])
}
