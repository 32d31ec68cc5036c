package proc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
)

// CDNClient sends purge requests to the CDN invalidation endpoint.
type CDNClient struct {
	Endpoint string
	Client   *http.Client
}

// NewCDNClient for the given purge endpoint
func NewCDNClient(endpoint string) *CDNClient {
	return &CDNClient{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Invalidate asks the CDN to drop cached copies of the given paths
func (c *CDNClient) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string][]string{"paths": paths})
	if err != nil {
		return fmt.Errorf("can't encode invalidation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("can't build invalidation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("invalidation request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("invalidation rejected with status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// NoopInvalidator is used when no purge endpoint is configured.
type NoopInvalidator struct{}

// Invalidate logs and does nothing
func (n *NoopInvalidator) Invalidate(_ context.Context, paths []string) error {
	log.Printf("[INFO] no cdn purge endpoint configured, skipping invalidation of %d paths", len(paths))
	return nil
}
