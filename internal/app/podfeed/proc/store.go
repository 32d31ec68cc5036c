package proc

import (
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	log "github.com/go-pkgz/lgr"
	"podfeed/internal/app/podfeed/episode"
)

const episodesBucket = "episodes"

// BoltDB store keeps the per-episode lifecycle records, keyed by filename.
type BoltDB struct {
	DB *bolt.DB
}

// SaveEpisode writes the episode record, creating the bucket on first use
func (b *BoltDB) SaveEpisode(e *episode.Episode) error {
	err := b.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(episodesBucket))
		if err != nil {
			return err
		}

		jdata, jerr := json.Marshal(e)
		if jerr != nil {
			return jerr
		}

		return bucket.Put([]byte(e.Filename), jdata)
	})

	return err
}

// GetEpisodeByFilename returns the stored record, nil when unknown
func (b *BoltDB) GetEpisodeByFilename(fileName string) (*episode.Episode, error) {
	result := &episode.Episode{}
	found := false

	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(episodesBucket))
		if bucket == nil {
			return nil
		}

		item := bucket.Get([]byte(fileName))
		if item == nil {
			return nil
		}

		if err := json.Unmarshal(item, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", fileName, err)
		}
		found = true
		return nil
	})

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return result, nil
}

// FindEpisodesByStatus get episodes from store by status
func (b *BoltDB) FindEpisodesByStatus(filterStatus episode.Status) ([]*episode.Episode, error) {
	var result []*episode.Episode
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(episodesBucket))
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			item := episode.Episode{}
			if err := json.Unmarshal(v, &item); err != nil {
				log.Printf("[WARN] failed to unmarshal %s, %v", string(k), err)
				continue
			}
			if item.Status != filterStatus {
				continue
			}
			result = append(result, &item)
		}
		return nil
	})

	return result, err
}

// ChangeEpisodeStatus change status of an episode in store
func (b *BoltDB) ChangeEpisodeStatus(e *episode.Episode, status episode.Status) error {
	e.Status = status
	return b.SaveEpisode(e)
}
