// Package configs for work with configurations
package configs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Conf for config yaml
type Conf struct {
	Podcast      Podcast         `yaml:"podcast"`
	Episode      EpisodeDefaults `yaml:"episode"`
	Audio        Audio           `yaml:"audio"`
	Feed         Feed            `yaml:"feed"`
	CloudStorage CloudStorage    `yaml:"cloud_storage"`
}

// Podcast defines the feed-level metadata block
type Podcast struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	Author      string `yaml:"author"`
	Email       string `yaml:"email"`
	Language    string `yaml:"language"`
	Copyright   string `yaml:"copyright"`
	Explicit    bool   `yaml:"explicit"`
}

// EpisodeDefaults used when the operator provides nothing
type EpisodeDefaults struct {
	Title       string `yaml:"default_title"`
	Description string `yaml:"default_description"`
	Type        string `yaml:"type"`
	Explicit    bool   `yaml:"explicit"`
}

// Audio defines transcoding settings
type Audio struct {
	Bitrate    string `yaml:"bitrate"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	Normalize  bool   `yaml:"normalize"`
}

// Feed defines the rendered document and artwork
type Feed struct {
	Filename string `yaml:"filename"`
	Artwork  string `yaml:"artwork"`
}

// CloudStorage defines the blob store and CDN endpoints
type CloudStorage struct {
	EndPointURL string `yaml:"endpoint_url"`
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	CDNBaseURL  string `yaml:"cdn_url"`
	PurgeURL    string `yaml:"cdn_purge_url"`
	Secure      bool   `yaml:"secure"`
	Secrets     struct {
		Key    string `yaml:"aws_key"`
		Secret string `yaml:"aws_secret"`
	} `yaml:"secrets"`
}

// Load config from file
func Load(fileName string) (res *Conf, err error) {
	res = &Conf{}
	data, err := os.ReadFile(fileName) // nolint
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, res); err != nil {
		return nil, err
	}

	res.applyDefaults()
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate checks fields nothing can default for
func (c *Conf) Validate() error {
	if c.Podcast.Title == "" {
		return fmt.Errorf("config: podcast.title is required")
	}
	if c.Podcast.Link == "" {
		return fmt.Errorf("config: podcast.link is required")
	}
	if c.CloudStorage.Bucket == "" {
		return fmt.Errorf("config: cloud_storage.bucket is required")
	}
	if c.CloudStorage.CDNBaseURL == "" {
		return fmt.Errorf("config: cloud_storage.cdn_url is required")
	}
	switch c.Episode.Type {
	case "full", "trailer", "bonus":
	default:
		return fmt.Errorf("config: episode.type %q is not one of full, trailer, bonus", c.Episode.Type)
	}
	return nil
}

func (c *Conf) applyDefaults() {
	if c.Podcast.Language == "" {
		c.Podcast.Language = "en"
	}
	if c.Episode.Type == "" {
		c.Episode.Type = "full"
	}
	if c.Episode.Description == "" {
		c.Episode.Description = c.Podcast.Description
	}
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = "128k"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Feed.Filename == "" {
		c.Feed.Filename = "feed.xml"
	}
}
