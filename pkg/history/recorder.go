package history

import (
	"context"
	"log/slog"
	"time"
)

// ReadLogger reports that a post link was opened
type ReadLogger interface {
	LogRead(ctx context.Context, url string) error
}

// Recorder forwards read logs and journals each outcome
type Recorder struct {
	next  ReadLogger
	store *Store
	now   func() time.Time
}

// NewRecorder wraps next so every LogRead is also written to store
func NewRecorder(next ReadLogger, store *Store) *Recorder {
	return &Recorder{next: next, store: store, now: time.Now}
}

// LogRead forwards to the wrapped logger and records the result.
// A journal write failure is logged and never replaces the forwarded result.
func (r *Recorder) LogRead(ctx context.Context, url string) error {
	clickedAt := r.now()
	err := r.next.LogRead(ctx, url)

	entry := Entry{URL: url, ClickedAt: clickedAt, Logged: err == nil}
	if err != nil {
		entry.Error = err.Error()
	}

	// The journal write must survive a caller deadline that the forward used up
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, recErr := r.store.Record(recordCtx, entry); recErr != nil {
		slog.Warn("Failed to record read history", "url", url, "error", recErr)
	}
	return err
}
