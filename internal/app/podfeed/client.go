package podfeed

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// NewBoltDB opens (or creates) the episode state database
func NewBoltDB(dbFile string) (*bolt.DB, error) {
	db, err := bolt.Open(dbFile, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// NewS3Client creates a client for the blob store endpoint
func NewS3Client(endpointURL, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpointURL, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
