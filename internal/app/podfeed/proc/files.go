package proc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/episode"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// Layout is the fixed working tree: episodes/ holds new input, processed/ the
// archived originals, published/ the uploaded mp3s, assets/ the artwork.
type Layout struct {
	Root string
}

func (l Layout) Episodes() string  { return filepath.Join(l.Root, "episodes") }
func (l Layout) Processed() string { return filepath.Join(l.Root, "processed") }
func (l Layout) Published() string { return filepath.Join(l.Root, "published") }
func (l Layout) Assets() string    { return filepath.Join(l.Root, "assets") }

// Ensure verifies the input directories exist and creates the output ones.
// Missing episodes/ or assets/ is a configuration error.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Episodes(), l.Assets()} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return fmt.Errorf("required directory %s not found", dir)
		}
	}
	for _, dir := range []string{l.Processed(), l.Published()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("can't create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Files for work with files of episodes
type Files struct {
	Layout Layout
}

// FindEpisodes lists the incoming directory and comes back with candidates
// for every supported audio file, sorted by name.
func (f *Files) FindEpisodes() ([]*episode.Episode, error) {
	entries, err := os.ReadDir(f.Layout.Episodes())
	if err != nil {
		return nil, fmt.Errorf("can't scan folder %s: %w", f.Layout.Episodes(), err)
	}

	var result []*episode.Episode
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExtensions[ext] {
			log.Printf("[INFO] skip %s, not a supported audio file", entry.Name())
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("can't get file info %s: %w", entry.Name(), err)
		}

		result = append(result, &episode.Episode{
			Filename: episode.MP3Name(entry.Name()),
			Source:   entry.Name(),
			Size:     info.Size(),
			PubDate:  info.ModTime(),
			Status:   episode.New,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Filename < result[j].Filename
	})

	return result, nil
}

// ArchiveSource moves an original out of the incoming directory. When the
// normalized artifact occupies the same path the original is copied instead,
// so the artifact stays available for publishing.
func (f *Files) ArchiveSource(e *episode.Episode) error {
	src := filepath.Join(f.Layout.Episodes(), e.Source)
	dst := filepath.Join(f.Layout.Processed(), episode.Slug(e.Source))

	if e.Source == e.Filename {
		return copyFile(src, dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("can't archive %s: %w", e.Source, err)
	}
	return nil
}

// MovePublished relocates the normalized mp3 into the published directory.
// Last step of the publish stage, only called after both uploads succeeded.
func (f *Files) MovePublished(e *episode.Episode) error {
	src := filepath.Join(f.Layout.Episodes(), e.Filename)
	dst := filepath.Join(f.Layout.Published(), e.Filename)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("can't move %s to published: %w", e.Filename, err)
	}
	return nil
}

// EpisodePath returns the current path of the normalized mp3.
func (f *Files) EpisodePath(e *episode.Episode) string {
	return filepath.Join(f.Layout.Episodes(), e.Filename)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // nolint:gosec
	if err != nil {
		return err
	}
	defer in.Close() // nolint:errcheck

	out, err := os.Create(dst) // nolint:gosec
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
