package proc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bogem/id3v2/v2"
	log "github.com/go-pkgz/lgr"
	"github.com/manifoldco/promptui"
	"github.com/tcolgate/mp3"

	"podfeed/internal/app/podfeed/episode"
	"podfeed/internal/configs"
)

// Resolver supplies operator-provided episode fields, with sensible defaults
// already filled in.
type Resolver interface {
	Resolve(filename, defaultTitle, defaultDescription string) (title, description string, err error)
}

// PromptResolver asks on the terminal, enter keeps the default.
type PromptResolver struct{}

// Resolve prompts for title and description
func (r *PromptResolver) Resolve(filename, defaultTitle, defaultDescription string) (string, string, error) {
	fmt.Printf("\nProcessing: %s\n", filename)

	titlePrompt := promptui.Prompt{Label: "Episode title", Default: defaultTitle, AllowEdit: true}
	title, err := titlePrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("title prompt: %w", err)
	}

	descPrompt := promptui.Prompt{Label: "Episode description", Default: defaultDescription, AllowEdit: true}
	description, err := descPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("description prompt: %w", err)
	}

	return title, description, nil
}

// DefaultResolver answers with the defaults, for unattended runs.
type DefaultResolver struct{}

// Resolve returns the defaults unchanged
func (r *DefaultResolver) Resolve(_, defaultTitle, defaultDescription string) (string, string, error) {
	return defaultTitle, defaultDescription, nil
}

// Collector finalizes episode metadata: operator fields through the resolver,
// technical fields read from the normalized file.
type Collector struct {
	Resolver Resolver
	Defaults configs.EpisodeDefaults
}

// Collect fills in the episode's title, description, defaults and technical
// metadata. The remote URL is left for the publisher to set.
func (c *Collector) Collect(files *Files, e *episode.Episode) error {
	path := files.EpisodePath(e)

	defaultTitle := c.Defaults.Title
	if tagTitle := readTagTitle(path); tagTitle != "" {
		defaultTitle = tagTitle
	}
	if defaultTitle == "" {
		defaultTitle = episode.TitleFromFilename(e.Filename)
	}

	title, description, err := c.Resolver.Resolve(e.Filename, defaultTitle, c.Defaults.Description)
	if err != nil {
		return err
	}
	if title == "" {
		title = defaultTitle
	}
	if description == "" {
		description = c.Defaults.Description
	}
	if description == "" {
		description = title
	}

	duration, bitrate, err := readMP3Info(path)
	if err != nil {
		return fmt.Errorf("can't read mp3 info for %s: %w", e.Filename, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("can't stat %s: %w", e.Filename, err)
	}

	e.Title = title
	e.Description = description
	e.Type = c.Defaults.Type
	e.Explicit = c.Defaults.Explicit
	e.Size = fi.Size()
	e.Meta = &episode.Metadata{
		DurationSec: int64(duration / time.Second),
		Bitrate:     bitrate,
		Size:        fi.Size(),
		MIMEType:    "audio/mpeg",
	}
	return nil
}

// readTagTitle pulls the title frame out of an ID3 tag, empty when absent.
func readTagTitle(path string) string {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title"}})
	if err != nil {
		return ""
	}
	defer tag.Close() // nolint:errcheck
	return tag.Title()
}

// readMP3Info walks the mp3 frames and returns total duration and the average
// bitrate in bits per second.
func readMP3Info(path string) (time.Duration, int, error) {
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return 0, 0, err
	}
	defer f.Close() // nolint:errcheck

	d := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var duration time.Duration
	var bitrateSum, frames int

	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			if frames > 0 {
				// trailing garbage after valid frames, common with sloppy encoders
				log.Printf("[WARN] mp3 decode stopped early for %s: %v", path, err)
				break
			}
			return 0, 0, err
		}
		duration += frame.Duration()
		bitrateSum += int(frame.Header().BitRate())
		frames++
	}

	if frames == 0 {
		return 0, 0, fmt.Errorf("no mp3 frames in %s", path)
	}
	return duration, bitrateSum / frames, nil
}
