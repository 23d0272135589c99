package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/lepinkainen/feed-pager/internal/config"
	"github.com/lepinkainen/feed-pager/pkg/api"
	"github.com/lepinkainen/feed-pager/pkg/dom"
	"github.com/lepinkainen/feed-pager/pkg/filesystem"
	"github.com/lepinkainen/feed-pager/pkg/history"
	httputil "github.com/lepinkainen/feed-pager/pkg/http"
	"github.com/lepinkainen/feed-pager/pkg/pager"
	"github.com/lepinkainen/feed-pager/pkg/render"
)

// errHistoryDisabled is returned by commands that need the read history journal
var errHistoryDisabled = errors.New("read history is disabled (history.enabled: false)")

// app holds the collaborators every command is built from
type app struct {
	config   *config.Config
	client   *api.FeedClient
	logger   pager.ReadLogger
	renderer *render.Renderer
	history  *history.Store
}

func newApp(cfg *config.Config) (*app, error) {
	httpConfig := httputil.DefaultConfig()
	httpConfig.Timeout = cfg.API.Timeout
	httpConfig.UserAgent = cfg.API.UserAgent
	httpConfig.BaseURL = cfg.API.BaseURL
	httpConfig.SessionCookie = cfg.API.SessionCookie
	httpConfig.SessionCookieName = cfg.API.SessionCookieName
	httpConfig.BearerToken = cfg.API.BearerToken

	httpClient, err := httputil.NewClient(httpConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	logRetry := api.ConservativeRetryPolicy()
	logRetry.MaxAttempts = cfg.API.LogAttempts

	client, err := api.NewFeedClient(api.FeedClientConfig{
		BaseURL:      cfg.API.BaseURL,
		HTTP:         httpClient,
		RateLimiter:  newRateLimiter(cfg),
		PageRetry:    api.SingleAttemptPolicy(),
		LogRetry:     logRetry,
		PageEndpoint: cfg.API.PageEndpoint,
		LogEndpoint:  cfg.API.LogEndpoint,
	})
	if err != nil {
		return nil, err
	}

	if dir := cfg.Render.TemplatesDir; dir != "" {
		render.SetTemplateOverrideFS(os.DirFS(dir))
	} else {
		render.SetTemplateOverrideFS(nil)
	}

	renderer, err := render.New(render.Config{
		Placeholder: cfg.Assets.Placeholder,
		Favicon:     cfg.Assets.Favicon,
		AssetBase:   cfg.AssetBase(),
		DateLayout:  cfg.Render.DateLayout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	a := &app{config: cfg, client: client, logger: client, renderer: renderer}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open read history: %w", err)
		}
		if cfg.History.Retention > 0 {
			if _, err := store.CleanupOlderThan(cfg.History.Retention); err != nil {
				slog.Warn("Failed to apply history retention", "error", err)
			}
		}
		a.history = store
		a.logger = history.NewRecorder(client, store)
	}

	return a, nil
}

func newRateLimiter(cfg *config.Config) api.RateLimiter {
	switch {
	case cfg.API.MinInterval <= 0:
		return api.NewNoOpRateLimiter()
	case cfg.API.Burst > 1:
		return api.NewTokenBucketRateLimiter(cfg.API.Burst, cfg.API.MinInterval)
	default:
		return api.NewSimpleRateLimiter(cfg.API.MinInterval)
	}
}

func (a *app) Close() {
	if a.history == nil {
		return
	}
	if err := a.history.Close(); err != nil {
		slog.Error("Failed to close read history", "error", err)
	}
}

// newDocument renders the empty page shell the pager fills
func (a *app) newDocument() (*dom.Document, error) {
	return a.renderer.NewDocument(a.pageData())
}

func (a *app) pageData() render.PageData {
	return render.PageData{
		Title:       a.config.Render.Title,
		ContainerID: a.config.Pager.ContainerID,
		Stylesheets: a.config.Render.Stylesheets,
	}
}

// newPager wires a pager to the document's posts container
func (a *app) newPager(doc *dom.Document, threshold int) (*pager.Pager, error) {
	return pager.New(pager.Config{
		Fetcher:    a.client,
		Logger:     a.logger,
		Renderer:   a.renderer,
		Container:  doc.Container(a.config.Pager.ContainerID),
		Threshold:  threshold,
		LogTimeout: a.config.Pager.LogTimeout,
		StartPage:  a.config.Pager.StartPage,
	})
}

// renderFeed loads up to maxPages pages (0 means until the feed ends) and
// writes the filled document to w.
func (a *app) renderFeed(ctx context.Context, w io.Writer, maxPages int) (pager.Result, error) {
	doc, err := a.newDocument()
	if err != nil {
		return pager.Result{}, err
	}

	p, err := a.newPager(doc, a.config.Pager.Threshold)
	if err != nil {
		return pager.Result{}, err
	}
	if p.State() == pager.Inactive {
		return pager.Result{}, fmt.Errorf("page shell has no #%s container", a.config.Pager.ContainerID)
	}

	total := pager.Result{Outcome: pager.Loaded}
	for pages := 0; maxPages <= 0 || pages < maxPages; pages++ {
		result, err := p.RequestNextPage(ctx)
		if err != nil {
			return total, err
		}
		total.Page = result.Page
		total.Rendered += result.Rendered
		total.Duplicates += result.Duplicates
		if result.Outcome != pager.Loaded {
			total.Outcome = result.Outcome
			break
		}
	}

	if err := doc.Render(w); err != nil {
		return total, fmt.Errorf("failed to render document: %w", err)
	}
	return total, nil
}

// writeOutput sends data to stdout for "-" and to an atomically replaced file otherwise
func writeOutput(stdout io.Writer, path string, fill func(io.Writer) error) error {
	if path == "-" || path == "" {
		return fill(stdout)
	}

	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}
	return filesystem.WriteFile(path, buf.Bytes())
}

// markRead posts a read log for url and waits for the outcome
func (a *app) markRead(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.Pager.LogTimeout)
	defer cancel()

	if err := a.logger.LogRead(ctx, url); err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w (check api.session_cookie or api.bearer_token)", err)
		}
		return err
	}
	return nil
}
