// Package podfeed wires the pipeline: scan, normalize, collect, publish, feed.
package podfeed

import (
	"context"

	log "github.com/go-pkgz/lgr"

	"podfeed/internal/app/podfeed/feed"
	"podfeed/internal/app/podfeed/proc"
	"podfeed/internal/configs"
)

// App runs one batch over the full backlog of new episodes.
type App struct {
	config    *configs.Conf
	processor *proc.Processor
}

// NewApplication creates the app from config and an assembled processor
func NewApplication(conf *configs.Conf, p *proc.Processor) (*App, error) {
	app := App{config: conf, processor: p}
	return &app, nil
}

// Run processes the backlog to completion. The returned error is fatal
// (config or store level); per-episode failures are logged and skipped.
func (a *App) Run(ctx context.Context) error {
	episodes, err := a.processor.Scan()
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		log.Printf("[INFO] no new episodes found to process")
		return nil
	}

	var published int
	for _, e := range episodes {
		if err := a.processor.Process(ctx, e); err != nil {
			log.Printf("[WARN] skipping %s this run: %v", e.Source, err)
			continue
		}
		published++
	}
	if published > 0 {
		log.Printf("[INFO] published %d of %d new episodes", published, len(episodes))
	}

	if err := a.publishFeed(ctx); err != nil {
		return err
	}

	if err := a.processor.InvalidateQueued(ctx); err != nil {
		// degraded only, the edge caches self-expire
		log.Printf("[WARN] cdn invalidation failed: %v", err)
	}
	return nil
}

func (a *App) publishFeed(ctx context.Context) error {
	artworkURL, err := a.processor.PublishArtwork(ctx, a.config.Feed.Artwork)
	if err != nil {
		log.Printf("[WARN] can't publish artwork: %v", err)
	}

	episodes, err := a.processor.PublishedEpisodes()
	if err != nil {
		return err
	}

	builder := feed.Builder{
		Podcast:    a.config.Podcast,
		CDNBaseURL: a.config.CloudStorage.CDNBaseURL,
		ArtworkURL: artworkURL,
	}
	doc, err := builder.Build(episodes)
	if err != nil {
		return err
	}

	if err := a.processor.PublishFeed(ctx, a.config.Feed.Filename, doc); err != nil {
		return err
	}
	log.Printf("[INFO] feed %s published with %d episodes", a.config.Feed.Filename, len(episodes))
	return nil
}
