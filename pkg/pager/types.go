package pager

import (
	"context"

	"github.com/lepinkainen/feed-pager/pkg/feedtypes"
)

// PageFetcher fetches one page of posts
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*feedtypes.PageResponse, error)
}

// ReadLogger reports that a post link was opened
type ReadLogger interface {
	LogRead(ctx context.Context, url string) error
}

// CardRenderer renders a post as an HTML fragment
type CardRenderer interface {
	RenderCard(post feedtypes.Post) (string, error)
}

// State is the pager's position in its lifecycle
type State int

const (
	// Idle means no request is in flight and more pages may exist
	Idle State = iota
	// Loading means a page request is in flight
	Loading
	// Terminal means the feed ended; no further requests are made
	Terminal
	// Inactive means there was no container to render into
	Inactive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Terminal:
		return "terminal"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Outcome says what a page request did
type Outcome int

const (
	// Skipped means no request was issued
	Skipped Outcome = iota
	// Loaded means a page was rendered and more may follow
	Loaded
	// Finished means the pager became terminal
	Finished
	// Failed means the request or its decoding failed; the page will be requested again
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Loaded:
		return "loaded"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one RequestNextPage call
type Result struct {
	Outcome    Outcome
	Page       int
	Rendered   int
	Duplicates int
}

// Viewport is the scroll geometry of whatever hosts the container.
// Units are up to the host: pixels in a browser, rows in a terminal.
type Viewport struct {
	ScrollTop    int
	ClientHeight int
	ScrollHeight int
}

// NearBottom reports whether the visible area ends within threshold of the bottom
func (v Viewport) NearBottom(threshold int) bool {
	return v.ScrollTop+v.ClientHeight >= v.ScrollHeight-threshold
}
