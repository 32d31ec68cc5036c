package proc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podfeed/internal/app/podfeed/episode"
)

func TestLayoutEnsureMissingEpisodes(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	require.NoError(t, os.MkdirAll(l.Assets(), 0o755))

	err := l.Ensure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episodes")
}

func TestLayoutEnsureCreatesOutputs(t *testing.T) {
	l := newTestLayout(t)

	for _, dir := range []string{l.Processed(), l.Published()} {
		fi, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

func TestFindEpisodes(t *testing.T) {
	l := newTestLayout(t)
	for _, name := range []string{"Zebra Talk.mp3", "a morning show.WAV", "notes.txt", "cover.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(l.Episodes(), name), []byte("x"), 0o600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(l.Episodes(), "subdir"), 0o755))

	f := &Files{Layout: l}
	episodes, err := f.FindEpisodes()
	require.NoError(t, err)

	require.Len(t, episodes, 2)
	assert.Equal(t, "a_morning_show.mp3", episodes[0].Filename)
	assert.Equal(t, "a morning show.WAV", episodes[0].Source)
	assert.Equal(t, "zebra_talk.mp3", episodes[1].Filename)
	assert.Equal(t, episode.New, episodes[0].Status)
	assert.False(t, episodes[0].PubDate.IsZero())
}

func TestFindEpisodesMissingDir(t *testing.T) {
	f := &Files{Layout: Layout{Root: filepath.Join(t.TempDir(), "nope")}}
	_, err := f.FindEpisodes()
	require.Error(t, err)
}

func TestArchiveSourceMove(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, os.WriteFile(filepath.Join(l.Episodes(), "Old Show.wav"), []byte("wav"), 0o600))

	f := &Files{Layout: l}
	e := &episode.Episode{Filename: "old_show.mp3", Source: "Old Show.wav"}
	require.NoError(t, f.ArchiveSource(e))

	assert.NoFileExists(t, filepath.Join(l.Episodes(), "Old Show.wav"))
	assert.FileExists(t, filepath.Join(l.Processed(), "old_show.wav"))
}

func TestArchiveSourceCopyWhenSamePath(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, os.WriteFile(filepath.Join(l.Episodes(), "take_one.mp3"), []byte("mp3"), 0o600))

	f := &Files{Layout: l}
	e := &episode.Episode{Filename: "take_one.mp3", Source: "take_one.mp3"}
	require.NoError(t, f.ArchiveSource(e))

	// artifact stays for publishing, archive copy lands in processed
	assert.FileExists(t, filepath.Join(l.Episodes(), "take_one.mp3"))
	assert.FileExists(t, filepath.Join(l.Processed(), "take_one.mp3"))
}

func TestMovePublished(t *testing.T) {
	l := newTestLayout(t)
	require.NoError(t, os.WriteFile(filepath.Join(l.Episodes(), "done.mp3"), []byte("mp3"), 0o600))

	f := &Files{Layout: l}
	e := &episode.Episode{Filename: "done.mp3", Source: "done.mp3"}
	require.NoError(t, f.MovePublished(e))

	assert.NoFileExists(t, filepath.Join(l.Episodes(), "done.mp3"))
	assert.FileExists(t, filepath.Join(l.Published(), "done.mp3"))
}
