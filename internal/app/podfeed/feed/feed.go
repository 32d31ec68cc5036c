// Package feed renders the RSS 2.0 document for the published episodes.
package feed

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	itunes "github.com/mxpv/podcast"

	"podfeed/internal/app/podfeed/episode"
	"podfeed/internal/configs"
)

// Builder assembles the podcast document from config and published episodes.
type Builder struct {
	Podcast    configs.Podcast
	CDNBaseURL string
	ArtworkURL string
	Now        func() time.Time
}

// Build renders the feed with episodes ordered newest first.
func (b *Builder) Build(episodes []*episode.Episode) ([]byte, error) {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	sorted := make([]*episode.Episode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PubDate.After(sorted[j].PubDate)
	})

	p := itunes.New(b.Podcast.Title, b.Podcast.Link, b.Podcast.Description, nil, &now)
	p.Language = b.Podcast.Language
	p.Copyright = b.Podcast.Copyright
	p.IExplicit = explicitString(b.Podcast.Explicit)
	if b.Podcast.Author != "" {
		p.AddAuthor(b.Podcast.Author, b.Podcast.Email)
	}
	if b.ArtworkURL != "" {
		p.AddImage(b.ArtworkURL)
	}

	types := make([]string, 0, len(sorted))
	for _, e := range sorted {
		if e.Meta == nil {
			return nil, fmt.Errorf("episode %s has no metadata", e.Filename)
		}
		pubDate := e.PubDate
		item := itunes.Item{
			Title:       e.Title,
			Description: e.Description,
			PubDate:     &pubDate,
		}
		item.AddEnclosure(b.mediaURL(e.Filename), itunes.MP3, e.Meta.Size)
		item.IExplicit = explicitString(e.Explicit)

		idx, err := p.AddItem(item)
		if err != nil {
			return nil, fmt.Errorf("can't add item %s: %w", e.Filename, err)
		}
		// AddItem derives IDuration from the enclosure byte length, so the
		// real duration has to be set on the stored item after insertion.
		p.Items[idx-1].IDuration = formatDuration(e.Meta.DurationSec)
		types = append(types, e.Type)
	}

	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, fmt.Errorf("can't render feed: %w", err)
	}
	return withEpisodeTypes(buf.Bytes(), types), nil
}

// withEpisodeTypes injects an itunes:episodeType element into each rendered
// item; the feed library has no field for it. Item content is XML-escaped by
// the encoder, so the closing tags matched here are unambiguous.
func withEpisodeTypes(doc []byte, types []string) []byte {
	parts := bytes.Split(doc, []byte("</item>"))
	if len(parts) != len(types)+1 {
		return doc
	}

	var buf bytes.Buffer
	for i, part := range parts {
		buf.Write(part)
		if i >= len(types) {
			continue
		}
		if types[i] != "" {
			fmt.Fprintf(&buf, "  <itunes:episodeType>%s</itunes:episodeType>\n    ", types[i])
		}
		buf.WriteString("</item>")
	}
	return buf.Bytes()
}

func (b *Builder) mediaURL(filename string) string {
	return fmt.Sprintf("%s/episodes/%s", strings.TrimRight(b.CDNBaseURL, "/"), filename)
}

// formatDuration renders seconds as HH:MM:SS, the form podcast clients expect.
func formatDuration(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func explicitString(explicit bool) string {
	if explicit {
		return "true"
	}
	return "false"
}
