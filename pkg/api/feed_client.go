package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lepinkainen/feed-pager/pkg/feedtypes"
	httputil "github.com/lepinkainen/feed-pager/pkg/http"
	"github.com/lepinkainen/feed-pager/pkg/urlutils"
)

const (
	// DefaultPageEndpoint serves paginated posts
	DefaultPageEndpoint = "/rssfeeds/api"
	// DefaultLogEndpoint records that a post link was opened
	DefaultLogEndpoint = "/rssfeeds/log"
)

// ErrEmptyURL is returned by LogRead when there is no URL to report.
var ErrEmptyURL = errors.New("read log requires a url")

// FeedClientConfig configures the feed backend client
type FeedClientConfig struct {
	BaseURL      string
	HTTP         *httputil.Client
	RateLimiter  RateLimiter
	PageRetry    *RetryPolicy
	LogRetry     *RetryPolicy
	PageEndpoint string
	LogEndpoint  string
}

// FeedClient talks to the paginated feed API and its read-log endpoint
type FeedClient struct {
	http        *httputil.Client
	rateLimiter RateLimiter
	pageRetry   *RetryPolicy
	logRetry    *RetryPolicy
	pageURL     string
	logURL      string
}

// NewFeedClient creates a feed client with the provided configuration
func NewFeedClient(config FeedClientConfig) (*FeedClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("feed client requires a base URL")
	}
	if !urlutils.IsValidURL(config.BaseURL) {
		return nil, fmt.Errorf("invalid base URL %q", config.BaseURL)
	}

	// Set defaults if not provided
	if config.HTTP == nil {
		client, err := httputil.NewClient(nil)
		if err != nil {
			return nil, err
		}
		config.HTTP = client
	}
	if config.RateLimiter == nil {
		config.RateLimiter = NewNoOpRateLimiter()
	}
	if config.PageRetry == nil {
		config.PageRetry = SingleAttemptPolicy()
	}
	if config.LogRetry == nil {
		config.LogRetry = ConservativeRetryPolicy()
	}
	if config.PageEndpoint == "" {
		config.PageEndpoint = DefaultPageEndpoint
	}
	if config.LogEndpoint == "" {
		config.LogEndpoint = DefaultLogEndpoint
	}

	pageURL, err := urlutils.JoinPath(config.BaseURL, config.PageEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build page URL: %w", err)
	}
	logURL, err := urlutils.JoinPath(config.BaseURL, config.LogEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build log URL: %w", err)
	}

	return &FeedClient{
		http:        config.HTTP,
		rateLimiter: config.RateLimiter,
		pageRetry:   config.PageRetry,
		logRetry:    config.LogRetry,
		pageURL:     pageURL,
		logURL:      logURL,
	}, nil
}

// PageURL returns the request URL for the given page number
func (fc *FeedClient) PageURL(page int) string {
	u, err := url.Parse(fc.pageURL)
	if err != nil {
		return fc.pageURL + "?page=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage fetches one page of posts
func (fc *FeedClient) FetchPage(ctx context.Context, page int) (*feedtypes.PageResponse, error) {
	pageURL := fc.PageURL(page)
	var resp feedtypes.PageResponse

	operation := func(ctx context.Context) error {
		if err := fc.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		resp = feedtypes.PageResponse{}
		start := time.Now()
		err := GetAndDecode(ctx, fc.http, pageURL, &resp, map[string]string{"Accept": "application/json"})
		fc.logAPICall(http.MethodGet, pageURL, time.Since(start), err)
		return err
	}

	if err := ExecuteWithRetry(ctx, operation, fc.pageRetry, fmt.Sprintf("GET %s", pageURL)); err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	return &resp, nil
}

// LogRead reports that the post at postURL was opened.
// The response body carries nothing the caller needs and is only logged.
func (fc *FeedClient) LogRead(ctx context.Context, postURL string) error {
	if postURL == "" {
		return ErrEmptyURL
	}

	body, err := json.Marshal(feedtypes.ReadLogRequest{URL: postURL})
	if err != nil {
		return fmt.Errorf("failed to encode read log request: %w", err)
	}

	operation := func(ctx context.Context) error {
		start := time.Now()
		res, err := fc.http.PostWithContext(ctx, fc.logURL, "application/json", bytes.NewReader(body))
		if err != nil {
			fc.logAPICall(http.MethodPost, fc.logURL, time.Since(start), err)
			return fmt.Errorf("failed to perform POST request: %w", err)
		}

		var message map[string]any
		if err := httputil.DecodeOptionalJSON(res, &message, http.StatusOK, http.StatusCreated); err != nil {
			if httputil.CheckStatusCode(res, http.StatusOK, http.StatusCreated) != nil {
				err = &HTTPError{StatusCode: res.StatusCode, Message: err.Error()}
			}
			fc.logAPICall(http.MethodPost, fc.logURL, time.Since(start), err)
			return err
		}

		fc.logAPICall(http.MethodPost, fc.logURL, time.Since(start), nil)
		slog.Debug("Read log response", "url", postURL, "status", res.StatusCode, "response", message)
		return nil
	}

	if err := ExecuteWithRetry(ctx, operation, fc.logRetry, fmt.Sprintf("POST %s", fc.logURL)); err != nil {
		return fmt.Errorf("log read %s: %w", postURL, err)
	}
	return nil
}

// logAPICall logs API call statistics
func (fc *FeedClient) logAPICall(method, url string, duration time.Duration, err error) {
	fields := []any{
		"method", method,
		"url", url,
		"duration", duration,
	}

	if err != nil {
		fields = append(fields, "status", "failure", "error", err)
		slog.Warn("API call failed", fields...)
		return
	}

	fields = append(fields, "status", "success")
	slog.Debug("API call completed", fields...)
}
