package config

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	httputil "github.com/lepinkainen/feed-pager/pkg/http"
)

// RemoteTimeout bounds fetching a configuration file over HTTP
const RemoteTimeout = 10 * time.Second

// isRemote reports whether path names an http(s) URL rather than a file
func isRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// fetchRemote downloads a YAML configuration file
func fetchRemote(url string) (*bytes.Reader, error) {
	httpConfig := httputil.DefaultConfig()
	httpConfig.Timeout = RemoteTimeout

	client, err := httputil.NewClient(httpConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), RemoteTimeout)
	defer cancel()

	resp, err := client.GetWithContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config from URL: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.EnsureStatusOK(resp); err != nil {
		return nil, fmt.Errorf("HTTP error fetching config: %w", err)
	}

	data, err := httputil.ReadResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from URL: %w", err)
	}
	return bytes.NewReader(data), nil
}
