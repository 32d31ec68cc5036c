package proc

import (
	"bytes"
	"context"
	"crypto/md5" // nolint:gosec // etag comparison, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
)

var contentTypes = map[string]string{
	".xml":  "application/xml",
	".mp3":  "audio/mpeg",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".json": "application/json",
}

// Uploader abstracts the blob store for the processor.
type Uploader interface {
	UploadEpisode(ctx context.Context, objectName, filePath string) (string, error)
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	UploadArtworkIfChanged(ctx context.Context, objectName, filePath string) (uploaded bool, url string, err error)
}

// Invalidator purges cached copies of updated objects at the CDN edge.
type Invalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

// S3Store store
type S3Store struct {
	Client     *minio.Client
	Location   string
	Bucket     string
	CDNBaseURL string
}

// UploadEpisode puts a normalized mp3 into the bucket
func (s *S3Store) UploadEpisode(ctx context.Context, objectName, filePath string) (string, error) {
	return s.uploadFile(ctx, objectName, filePath)
}

// UploadBytes puts an in-memory artifact (metadata sidecar, feed document)
func (s *S3Store) UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.Client.PutObject(ctx, s.Bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("can't upload %s: %w", objectName, err)
	}
	return s.URL(objectName), nil
}

// UploadArtworkIfChanged compares the local md5 against the remote etag and
// uploads only when they differ, coming back with whether anything changed.
func (s *S3Store) UploadArtworkIfChanged(ctx context.Context, objectName, filePath string) (bool, string, error) {
	localHash, err := fileMD5(filePath)
	if err != nil {
		return false, "", fmt.Errorf("can't hash %s: %w", filePath, err)
	}

	stat, err := s.Client.StatObject(ctx, s.Bucket, objectName, minio.StatObjectOptions{})
	if err == nil && strings.Trim(stat.ETag, `"`) == localHash {
		return false, s.URL(objectName), nil
	}
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode != http.StatusNotFound && resp.Code != "NoSuchKey" && resp.Code != "NoSuchBucket" {
			return false, "", fmt.Errorf("can't stat %s: %w", objectName, err)
		}
	}

	url, err := s.uploadFile(ctx, objectName, filePath)
	if err != nil {
		return false, "", err
	}
	return true, url, nil
}

func (s *S3Store) uploadFile(ctx context.Context, objectName, filePath string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	_, err := s.Client.FPutObject(ctx, s.Bucket, objectName, filePath,
		minio.PutObjectOptions{ContentType: contentTypeFor(filePath)})
	if err != nil {
		return "", fmt.Errorf("can't upload %s: %w", objectName, err)
	}
	return s.URL(objectName), nil
}

// URL of an object behind the CDN
func (s *S3Store) URL(objectName string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.CDNBaseURL, "/"), objectName)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return fmt.Errorf("can't check bucket %s: %w", s.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{Region: s.Location}); err != nil {
		return fmt.Errorf("can't create bucket %s: %w", s.Bucket, err)
	}
	return nil
}

func contentTypeFor(filePath string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filePath))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func fileMD5(filePath string) (string, error) {
	f, err := os.Open(filePath) // nolint:gosec
	if err != nil {
		return "", err
	}
	defer f.Close() // nolint:errcheck

	h := md5.New() // nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
