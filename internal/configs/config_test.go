package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	conf, err := Load("testdata/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "Late Night Radio", conf.Podcast.Title)
	assert.Equal(t, "sam@latenight.example.com", conf.Podcast.Email)
	assert.Equal(t, "en-us", conf.Podcast.Language)

	assert.Equal(t, conf.CloudStorage.EndPointURL, "s3.region-us.example.com")
	assert.Equal(t, conf.CloudStorage.Bucket, "bucket_name")
	assert.Equal(t, conf.CloudStorage.Region, "region-us")
	assert.Equal(t, conf.CloudStorage.CDNBaseURL, "https://cdn.latenight.example.com")
	assert.Equal(t, conf.CloudStorage.Secrets.Key, "123123123")
	assert.Equal(t, conf.CloudStorage.Secrets.Secret, "abc123123123xyz")
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(writeConf(t, `
podcast:
  title: Minimal
  link: https://minimal.example.com
cloud_storage:
  bucket: b
  cdn_url: https://cdn.example.com
`))
	require.NoError(t, err)

	assert.Equal(t, "en", conf.Podcast.Language)
	assert.Equal(t, "full", conf.Episode.Type)
	assert.Equal(t, "128k", conf.Audio.Bitrate)
	assert.Equal(t, 44100, conf.Audio.SampleRate)
	assert.Equal(t, 2, conf.Audio.Channels)
	assert.Equal(t, "feed.xml", conf.Feed.Filename)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(writeConf(t, `
podcast:
  title: No Bucket
  link: https://nobucket.example.com
cloud_storage:
  cdn_url: https://cdn.example.com
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud_storage.bucket")
}

func TestLoadBadEpisodeType(t *testing.T) {
	_, err := Load(writeConf(t, `
podcast:
  title: Bad Type
  link: https://badtype.example.com
episode:
  type: rerun
cloud_storage:
  bucket: b
  cdn_url: https://cdn.example.com
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "episode.type")
}

func TestLoadConfigNotFound(t *testing.T) {
	conf, err := Load("/tmp/test-bestow-nautch-toss-fritter-pygmy-unrest.yml")
	assert.Nil(t, conf)
	assert.Error(t, err)
}

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
