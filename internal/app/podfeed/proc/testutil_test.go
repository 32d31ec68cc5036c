package proc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/require"
)

// mp3Frame is a silent MPEG-1 Layer III frame: 128kbps, 44.1kHz, stereo.
// Header 0xFF 0xFB 0x90 0x00, frame length 144*128000/44100 = 417 bytes.
func mp3Frame() []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	return frame
}

// writeTestMP3 writes a minimal valid mp3 with the given number of frames.
func writeTestMP3(t *testing.T, path string, frames int) {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < frames; i++ {
		buf.Write(mp3Frame())
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

// newTestLayout builds a working tree with the input directories present.
func newTestLayout(t *testing.T) Layout {
	t.Helper()
	l := Layout{Root: t.TempDir()}
	require.NoError(t, os.MkdirAll(l.Episodes(), 0o755))
	require.NoError(t, os.MkdirAll(l.Assets(), 0o755))
	require.NoError(t, l.Ensure())
	return l
}

// newTestStore opens a throwaway bolt db.
func newTestStore(t *testing.T) *BoltDB {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.bdb"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &BoltDB{DB: db}
}
