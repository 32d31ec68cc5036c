package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"podfeed/internal/app/podfeed/episode"
)

// Normalizer converts incoming audio to mp3 through an external ffmpeg binary.
type Normalizer struct {
	FFmpeg     string // binary name or path, "ffmpeg" when empty
	Bitrate    string
	SampleRate int
	Channels   int
	Loudnorm   bool
}

// Normalize makes sure the episode's artifact is an mp3 sitting in the
// incoming directory under its slugged name, then archives the original.
// An mp3 input is renamed in place, anything else goes through ffmpeg.
func (n *Normalizer) Normalize(ctx context.Context, files *Files, e *episode.Episode) error {
	src := filepath.Join(files.Layout.Episodes(), e.Source)

	if strings.EqualFold(filepath.Ext(e.Source), ".mp3") {
		if e.Source != e.Filename {
			if err := os.Rename(src, files.EpisodePath(e)); err != nil {
				return fmt.Errorf("can't rename %s: %w", e.Source, err)
			}
			e.Source = e.Filename
		}
	} else {
		if err := n.transcode(ctx, src, files.EpisodePath(e)); err != nil {
			return err
		}
	}

	if err := files.ArchiveSource(e); err != nil {
		return err
	}
	e.Status = episode.Processed
	return nil
}

func (n *Normalizer) transcode(ctx context.Context, src, dst string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ar", strconv.Itoa(n.SampleRate),
		"-ac", strconv.Itoa(n.Channels),
		"-b:a", n.Bitrate,
	}
	if n.Loudnorm {
		args = append(args, "-af", "loudnorm")
	}
	args = append(args, "-f", "mp3", dst)

	binary := n.FFmpeg
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...) // nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		// leave a clean slate so the next run can retry from the source
		_ = os.Remove(dst)
		return fmt.Errorf("ffmpeg transcode %s: %w: %s", filepath.Base(src), err, strings.TrimSpace(string(output)))
	}
	return nil
}
