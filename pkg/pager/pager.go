// Package pager loads a feed page by page into a posts container as the
// reader scrolls, and reports opened links to the read log.
package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/net/html"

	"github.com/lepinkainen/feed-pager/pkg/dom"
)

const (
	// DefaultThreshold is how close to the bottom a scroll must get to load more
	DefaultThreshold = 50
	// DefaultLogTimeout bounds a detached read-log post
	DefaultLogTimeout = 10 * time.Second
)

// Config wires a pager to its collaborators
type Config struct {
	Fetcher  PageFetcher
	Logger   ReadLogger
	Renderer CardRenderer
	// Container receives rendered cards; nil makes the pager inactive
	Container  *dom.Container
	Threshold  int
	LogTimeout time.Duration
	StartPage  int
}

// Pager is the feed pagination controller.
//
// The in-flight flag is the only admission control for page requests. Page
// state, the seen set and the container are guarded by mu.
type Pager struct {
	fetcher    PageFetcher
	logger     ReadLogger
	renderer   CardRenderer
	container  *dom.Container
	threshold  int
	logTimeout time.Duration

	inflight atomic.Bool

	mu       sync.Mutex
	page     int
	seen     map[string]struct{}
	terminal bool

	logs conc.WaitGroup
}

// New creates a pager. Without a container the pager is inactive and every
// operation is a silent no-op.
func New(config Config) (*Pager, error) {
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	if config.LogTimeout <= 0 {
		config.LogTimeout = DefaultLogTimeout
	}
	if config.StartPage < 1 {
		config.StartPage = 1
	}

	if config.Container != nil {
		if config.Fetcher == nil {
			return nil, errors.New("pager requires a page fetcher")
		}
		if config.Renderer == nil {
			return nil, errors.New("pager requires a card renderer")
		}
	} else {
		slog.Debug("No posts container, pager disabled")
	}

	return &Pager{
		fetcher:    config.Fetcher,
		logger:     config.Logger,
		renderer:   config.Renderer,
		container:  config.Container,
		threshold:  config.Threshold,
		logTimeout: config.LogTimeout,
		page:       config.StartPage,
		seen:       make(map[string]struct{}),
	}, nil
}

// Start performs the initial load
func (p *Pager) Start(ctx context.Context) (Result, error) {
	return p.RequestNextPage(ctx)
}

// RequestNextPage fetches the current page and appends its unseen posts.
// It does nothing while another request is in flight or once the feed ended.
func (p *Pager) RequestNextPage(ctx context.Context) (Result, error) {
	if p.container == nil {
		return Result{Outcome: Skipped}, nil
	}
	if !p.inflight.CompareAndSwap(false, true) {
		return Result{Outcome: Skipped}, nil
	}
	defer p.inflight.Store(false)

	p.mu.Lock()
	if p.terminal {
		p.mu.Unlock()
		return Result{Outcome: Skipped}, nil
	}
	page := p.page
	p.mu.Unlock()

	slog.Debug("Fetching page", "page", page)
	resp, err := p.fetcher.FetchPage(ctx, page)
	if err != nil {
		slog.Error("Error fetching posts", "page", page, "error", err)
		return Result{Outcome: Failed, Page: page}, fmt.Errorf("page %d: %w", page, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	result := Result{Outcome: Loaded, Page: page}

	if resp.Empty() {
		slog.Info("No more posts to load", "page", page)
		p.terminal = true
		result.Outcome = Finished
		return result, nil
	}

	for _, post := range resp.Posts {
		key := post.Key()
		if _, ok := p.seen[key]; ok {
			result.Duplicates++
			continue
		}

		fragment, err := p.renderer.RenderCard(post)
		if err != nil {
			slog.Error("Failed to render post", "url", post.URL, "error", err)
			continue
		}
		if err := p.container.AppendHTML(fragment); err != nil {
			slog.Error("Failed to append post", "url", post.URL, "error", err)
			continue
		}
		p.seen[key] = struct{}{}
		result.Rendered++
	}

	if resp.HasMore {
		p.page++
	} else {
		slog.Info("No more pages available", "page", page)
		p.terminal = true
		result.Outcome = Finished
	}

	slog.Debug("Page loaded",
		"page", page,
		"rendered", result.Rendered,
		"duplicates", result.Duplicates,
		"cards", p.container.Len(),
		"hasMore", resp.HasMore)
	return result, nil
}

// OnScroll is the scroll trigger. It requests the next page when nothing is
// loading and the viewport is near the bottom.
func (p *Pager) OnScroll(ctx context.Context, viewport Viewport) (Result, error) {
	if !p.TriggerActive() || p.inflight.Load() {
		return Result{Outcome: Skipped}, nil
	}
	if !viewport.NearBottom(p.threshold) {
		return Result{Outcome: Skipped}, nil
	}
	return p.RequestNextPage(ctx)
}

// HandleClick is the container's delegated click handler. It returns the
// href of the clicked anchor right away, and when that anchor carries
// data-url it posts a read log in the background.
func (p *Pager) HandleClick(target *html.Node) (href string, logged bool) {
	if p.container == nil || target == nil {
		return "", false
	}

	p.mu.Lock()
	if !p.container.Contains(target) {
		p.mu.Unlock()
		return "", false
	}
	anchor := dom.ClosestAnchor(target, p.container.Node())
	href, _ = dom.Attr(anchor, "href")
	url, _ := dom.Attr(anchor, "data-url")
	p.mu.Unlock()

	if url == "" {
		return href, false
	}
	return href, p.logRead(url)
}

// ClickCard clicks the title link of the card at index
func (p *Pager) ClickCard(index int) (href string, logged bool) {
	cards := p.Cards()
	if index < 0 || index >= len(cards) || cards[index].Link == nil {
		return "", false
	}
	return p.HandleClick(cards[index].Link)
}

// logRead posts the read log as a detached task. Its context is not tied to
// the click, and failures are only logged.
func (p *Pager) logRead(url string) bool {
	if p.logger == nil {
		return false
	}

	p.logs.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.logTimeout)
		defer cancel()

		if err := p.logger.LogRead(ctx, url); err != nil {
			slog.Error("Error logging read", "url", url, "error", err)
			return
		}
		slog.Debug("Read log created", "url", url)
	})
	return true
}

// Wait blocks until all detached read-log tasks finish
func (p *Pager) Wait() {
	if r := p.logs.WaitAndRecover(); r != nil {
		slog.Error("Read log task panicked", "panic", r.Value)
	}
}

// State returns the current lifecycle state
func (p *Pager) State() State {
	if p.container == nil {
		return Inactive
	}

	p.mu.Lock()
	terminal := p.terminal
	p.mu.Unlock()

	switch {
	case terminal:
		return Terminal
	case p.inflight.Load():
		return Loading
	default:
		return Idle
	}
}

// Page returns the page the next request will ask for
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// TriggerActive reports whether scroll events can still load pages
func (p *Pager) TriggerActive() bool {
	if p.container == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.terminal
}

// Seen returns how many distinct posts have been rendered
func (p *Pager) Seen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

// Cards returns a snapshot of the rendered cards in display order
func (p *Pager) Cards() []dom.Card {
	if p.container == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.container.Cards()
}
