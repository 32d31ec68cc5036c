package proc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/episode"
)

// Processor drives one episode through normalize, collect and publish, and
// owns the side effects against the blob store and the CDN.
type Processor struct {
	Files      *Files
	Storage    *BoltDB
	S3Client   Uploader
	CDN        Invalidator
	Normalizer *Normalizer
	Collector  *Collector
	Retry      RetryPolicy

	pathsToInvalidate []string
}

// sidecar is the metadata document stored next to the audio object.
type sidecar struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Duration    int64  `json:"duration"`
	Bitrate     int    `json:"bitrate"`
	MIMEType    string `json:"mime_type"`
	Type        string `json:"type"`
	Explicit    bool   `json:"explicit"`
	URL         string `json:"url"`
}

// Scan discovers new episodes in the incoming directory and records them.
// Episodes already published under the same name are skipped.
func (p *Processor) Scan() ([]*episode.Episode, error) {
	candidates, err := p.Files.FindEpisodes()
	if err != nil {
		return nil, err
	}

	var result []*episode.Episode
	for _, e := range candidates {
		known, err := p.Storage.GetEpisodeByFilename(e.Filename)
		if err != nil {
			return nil, err
		}
		if known != nil && known.Status == episode.Published {
			// leftover from a run that crashed after the commit, finish the move
			if e.Source == e.Filename {
				if err := p.Files.MovePublished(e); err == nil {
					log.Printf("[INFO] %s already published, moved leftover file out of incoming", e.Filename)
					continue
				}
			}
			log.Printf("[WARN] %s already published, leaving %s alone", e.Filename, e.Source)
			continue
		}

		if err := p.Storage.SaveEpisode(e); err != nil {
			return nil, fmt.Errorf("can't record episode %s: %w", e.Filename, err)
		}
		result = append(result, e)
	}
	return result, nil
}

// Process runs one episode through the remaining stages. An error means the
// episode is skipped this run; its files stay where the failed stage found them.
func (p *Processor) Process(ctx context.Context, e *episode.Episode) error {
	if err := p.Normalizer.Normalize(ctx, p.Files, e); err != nil {
		return err
	}
	if err := p.Storage.SaveEpisode(e); err != nil {
		return err
	}

	if err := p.Collector.Collect(p.Files, e); err != nil {
		return err
	}
	if err := p.Storage.SaveEpisode(e); err != nil {
		return err
	}

	return p.publish(ctx, e)
}

// publish uploads the audio object first and the sidecar second, so a crash
// between the two never leaves a sidecar without its audio. The status flip
// and the local move come last.
func (p *Processor) publish(ctx context.Context, e *episode.Episode) error {
	audioKey := "episodes/" + e.Filename

	var url string
	err := p.Retry.Do(ctx, "upload "+audioKey, func() error {
		var uerr error
		url, uerr = p.S3Client.UploadEpisode(ctx, audioKey, p.Files.EpisodePath(e))
		return uerr
	})
	if err != nil {
		return err
	}
	e.Meta.URL = url

	data, err := json.MarshalIndent(sidecar{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.PubDate.Format(time.RFC3339),
		Filename:    e.Filename,
		Size:        e.Meta.Size,
		Duration:    e.Meta.DurationSec,
		Bitrate:     e.Meta.Bitrate,
		MIMEType:    e.Meta.MIMEType,
		Type:        e.Type,
		Explicit:    e.Explicit,
		URL:         url,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("can't encode metadata for %s: %w", e.Filename, err)
	}

	metaKey := metadataKey(e.Filename)
	err = p.Retry.Do(ctx, "upload "+metaKey, func() error {
		_, uerr := p.S3Client.UploadBytes(ctx, metaKey, data, "application/json")
		return uerr
	})
	if err != nil {
		return err
	}

	// both artifacts are durable at this point, the record flip is the commit
	if err := p.Storage.ChangeEpisodeStatus(e, episode.Published); err != nil {
		return err
	}
	if err := p.Files.MovePublished(e); err != nil {
		return err
	}

	p.queueInvalidation("/" + audioKey)
	log.Printf("[INFO] published %s (%d bytes) to %s", e.Filename, e.Meta.Size, url)
	return nil
}

// PublishedEpisodes loads every published record for the feed. Records that
// predate metadata tracking are backfilled from the published file itself.
func (p *Processor) PublishedEpisodes() ([]*episode.Episode, error) {
	episodes, err := p.Storage.FindEpisodesByStatus(episode.Published)
	if err != nil {
		return nil, err
	}

	result := episodes[:0]
	for _, e := range episodes {
		if e.Meta == nil {
			if err := p.backfillMetadata(e); err != nil {
				log.Printf("[WARN] can't backfill metadata for %s, dropping from feed: %v", e.Filename, err)
				continue
			}
		}
		result = append(result, e)
	}
	return result, nil
}

// PublishArtwork uploads the cover image when it changed and returns its URL.
// Empty artwork name means the feed has no image.
func (p *Processor) PublishArtwork(ctx context.Context, artwork string) (string, error) {
	if artwork == "" {
		return "", nil
	}
	localPath := filepath.Join(p.Files.Layout.Assets(), artwork)
	key := "assets/" + artwork

	var uploaded bool
	var url string
	err := p.Retry.Do(ctx, "upload "+key, func() error {
		var uerr error
		uploaded, url, uerr = p.S3Client.UploadArtworkIfChanged(ctx, key, localPath)
		return uerr
	})
	if err != nil {
		return "", err
	}
	if uploaded {
		p.queueInvalidation("/" + key)
	}
	return url, nil
}

// PublishFeed uploads the rendered document to the bucket root.
func (p *Processor) PublishFeed(ctx context.Context, filename string, doc []byte) error {
	err := p.Retry.Do(ctx, "upload "+filename, func() error {
		_, uerr := p.S3Client.UploadBytes(ctx, filename, doc, "application/xml")
		return uerr
	})
	if err != nil {
		return err
	}
	p.queueInvalidation("/" + filename)
	return nil
}

// InvalidateQueued purges everything uploaded during this run. Failure here
// is degraded, not fatal: the edge caches expire on their own.
func (p *Processor) InvalidateQueued(ctx context.Context) error {
	if len(p.pathsToInvalidate) == 0 {
		return nil
	}
	paths := p.pathsToInvalidate
	p.pathsToInvalidate = nil
	return p.Retry.Do(ctx, "cdn invalidation", func() error {
		return p.CDN.Invalidate(ctx, paths)
	})
}

func (p *Processor) queueInvalidation(path string) {
	p.pathsToInvalidate = append(p.pathsToInvalidate, path)
}

func (p *Processor) backfillMetadata(e *episode.Episode) error {
	path := filepath.Join(p.Files.Layout.Published(), e.Filename)
	duration, bitrate, err := readMP3Info(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	e.Size = fi.Size()
	e.Meta = &episode.Metadata{
		DurationSec: int64(duration / time.Second),
		Bitrate:     bitrate,
		Size:        fi.Size(),
		MIMEType:    "audio/mpeg",
	}
	return nil
}

func metadataKey(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return "assets/metadata/" + stem + ".json"
}
