// Package episode defines the records tracked through the publish lifecycle.
package episode

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Status of episode
type Status int

const (
	// New status for freshly discovered episodes
	New Status = iota
	// Processed status for episodes normalized to mp3
	Processed
	// Published status for episodes with audio and metadata durably stored
	Published
)

// Episode of podcast. Filename is the slugged name of the normalized mp3 and
// the episode identity; Source is the name the file arrived under.
type Episode struct {
	Filename    string
	Source      string
	Title       string
	Description string
	Type        string // full, trailer or bonus
	Explicit    bool
	PubDate     time.Time
	Size        int64
	Status      Status
	Meta        *Metadata
}

// Metadata derived from the normalized file, immutable once written
type Metadata struct {
	DurationSec int64  `json:"duration"`
	Bitrate     int    `json:"bitrate"`
	Size        int64  `json:"size"`
	MIMEType    string `json:"mime_type"`
	URL         string `json:"url"`
}

// Slug rewrites a file name to lowercase with alnum, dash and underscore kept,
// everything else folded to underscores and runs collapsed. Extension is lowercased.
func Slug(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	parts := strings.FieldsFunc(b.String(), func(r rune) bool { return r == '_' })
	return strings.Join(parts, "_") + ext
}

// MP3Name returns the slugged name with the extension forced to .mp3.
func MP3Name(name string) string {
	slug := Slug(name)
	return strings.TrimSuffix(slug, filepath.Ext(slug)) + ".mp3"
}

// TitleFromFilename derives a readable default title from a slugged name.
func TitleFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	words := strings.FieldsFunc(stem, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.Title(w) // nolint:staticcheck // ASCII slugs only
	}
	return strings.Join(words, " ")
}
