package proc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podfeed/internal/app/podfeed/episode"
)

func TestSaveAndGetEpisode(t *testing.T) {
	store := newTestStore(t)

	e := &episode.Episode{
		Filename: "first_show.mp3",
		Source:   "First Show.mp3",
		Title:    "First Show",
		PubDate:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Size:     1234,
		Status:   episode.New,
	}
	require.NoError(t, store.SaveEpisode(e))

	got, err := store.GetEpisodeByFilename("first_show.mp3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First Show", got.Title)
	assert.Equal(t, int64(1234), got.Size)
	assert.Equal(t, episode.New, got.Status)
}

func TestGetEpisodeUnknown(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetEpisodeByFilename("never_recorded.mp3")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindEpisodesByStatus(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveEpisode(&episode.Episode{Filename: "a.mp3", Status: episode.Published}))
	require.NoError(t, store.SaveEpisode(&episode.Episode{Filename: "b.mp3", Status: episode.New}))
	require.NoError(t, store.SaveEpisode(&episode.Episode{Filename: "c.mp3", Status: episode.Published}))

	published, err := store.FindEpisodesByStatus(episode.Published)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "a.mp3", published[0].Filename)
	assert.Equal(t, "c.mp3", published[1].Filename)
}

func TestChangeEpisodeStatus(t *testing.T) {
	store := newTestStore(t)

	e := &episode.Episode{Filename: "flip.mp3", Status: episode.Processed}
	require.NoError(t, store.SaveEpisode(e))
	require.NoError(t, store.ChangeEpisodeStatus(e, episode.Published))

	got, err := store.GetEpisodeByFilename("flip.mp3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, episode.Published, got.Status)
}
