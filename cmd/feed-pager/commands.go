package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/feed-pager/configs"
	"github.com/lepinkainen/feed-pager/internal/config"
	"github.com/lepinkainen/feed-pager/pkg/browse"
	"github.com/lepinkainen/feed-pager/pkg/database"
	"github.com/lepinkainen/feed-pager/pkg/filesystem"
	"github.com/lepinkainen/feed-pager/pkg/pager"
)

// browseFeed runs the terminal reader until the user quits, then waits for
// pending read logs.
func browseFeed(ctx context.Context, a *app, logFile string, debug bool) error {
	// The reader owns the terminal, so logs go to a file or nowhere
	restore, err := redirectLogs(logFile, debug)
	if err != nil {
		return err
	}
	defer restore()

	doc, err := a.newDocument()
	if err != nil {
		return err
	}

	// The terminal reader measures in rows, so one card is the trigger distance
	rows := a.config.Browse.RowsPerCard
	p, err := a.newPager(doc, rows)
	if err != nil {
		return err
	}

	runErr := browse.Run(ctx, p, browse.CommandOpener(a.config.Browse.Opener), a.config.Render.Title, rows)
	p.Wait()
	slog.Info("Reader closed", "posts", p.Seen(), "page", p.Page())
	return runErr
}

func redirectLogs(logFile string, debug bool) (func(), error) {
	previous := slog.Default()
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = io.Discard
	var file *os.File
	if logFile != "" {
		if err := filesystem.EnsureDirectoryExists(logFile); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, file = f, f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return func() {
		slog.SetDefault(previous)
		if file != nil {
			_ = file.Close()
		}
	}, nil
}

func renderCommand(ctx context.Context, a *app, stdout io.Writer, outfile string, maxPages int, shell bool) error {
	if shell {
		return writeOutput(stdout, outfile, func(w io.Writer) error {
			return a.renderer.RenderPage(w, a.pageData())
		})
	}

	var result pager.Result
	err := writeOutput(stdout, outfile, func(w io.Writer) error {
		var err error
		result, err = a.renderFeed(ctx, w, maxPages)
		return err
	})
	if err != nil {
		return err
	}

	slog.Info("Feed rendered",
		"outfile", outfile,
		"lastPage", result.Page,
		"posts", result.Rendered,
		"duplicates", result.Duplicates,
		"complete", result.Outcome == pager.Finished)
	return nil
}

func markReadCommand(ctx context.Context, a *app, stdout io.Writer, url string) error {
	if err := a.markRead(ctx, url); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Marked as read: %s\n", url)
	return nil
}

func historyCommand(ctx context.Context, a *app, stdout io.Writer, limit int, vacuum bool) error {
	if a.history == nil {
		return errHistoryDisabled
	}

	if vacuum {
		if err := database.VacuumDatabase(a.history.Database()); err != nil {
			return err
		}
	}

	entries, err := a.history.Recent(ctx, limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		status := "logged"
		if !e.Logged {
			status = "failed: " + e.Error
		}
		fmt.Fprintf(stdout, "%-14s %s (%s)\n", browse.FormatTimeAgo(e.ClickedAt), e.URL, status)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No posts opened yet")
	}

	stats, err := a.history.GetStats()
	if err != nil {
		return err
	}
	info, err := database.GetDatabaseInfo(a.history.Database())
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	printMap(stdout, stats)
	printMap(stdout, info)
	return nil
}

func printMap(w io.Writer, m map[string]any) {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		value := m[key]
		if t, ok := value.(time.Time); ok {
			value = t.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%-16s %v\n", key+":", value)
	}
}

func initConfig(stdout io.Writer, outfile string, force bool) error {
	if filesystem.FileExists(outfile) && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", outfile)
	}

	data, err := configs.Example()
	if err != nil {
		return fmt.Errorf("failed to read example configuration: %w", err)
	}
	if err := filesystem.WriteFile(outfile, data); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Wrote %s\n", outfile)
	return nil
}

// showConfig prints the effective configuration with credentials masked
func showConfig(stdout io.Writer, cfg *config.Config) error {
	masked := *cfg
	if masked.API.SessionCookie != "" {
		masked.API.SessionCookie = "********"
	}
	if masked.API.BearerToken != "" {
		masked.API.BearerToken = "********"
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
