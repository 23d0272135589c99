package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	httputil "github.com/lepinkainen/feed-pager/pkg/http"
)

// GetAndDecode performs an HTTP GET request and decodes the JSON response.
// Non-200 responses come back as *HTTPError so retry policies can classify them.
func GetAndDecode(ctx context.Context, client *httputil.Client, url string, target any, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := client.DoRequest(req)
	if err != nil {
		return fmt.Errorf("failed to perform GET request: %w", err)
	}

	if err := httputil.CheckStatusCode(res, http.StatusOK); err != nil {
		_ = res.Body.Close()
		return &HTTPError{StatusCode: res.StatusCode, Message: err.Error()}
	}

	if err := httputil.DecodeJSONResponse(res, target); err != nil {
		return fmt.Errorf("failed to decode json response: %w", err)
	}

	slog.Debug("Successfully fetched and decoded", "url", url)
	return nil
}
