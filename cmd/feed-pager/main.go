// Package main provides the CLI entry point for feed-pager.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/feed-pager/internal/config"
)

// CLI structure
var CLI struct {
	Config  string `help:"Configuration file path" default:"config.yaml"`
	Debug   bool   `help:"Enable debug logging" default:"false"`
	BaseURL string `help:"Feed backend base URL, overrides api.base_url" name:"base-url"`

	Browse struct {
		LogFile string `help:"Write logs to this file while the reader is open" name:"log-file"`
	} `cmd:"browse" help:"Read the feed interactively, loading pages as you scroll." default:"1"`

	Render struct {
		Outfile  string `help:"Output file path, - for stdout" short:"o" default:"feed.html"`
		MaxPages int    `help:"Maximum number of pages to load, 0 loads until the feed ends" default:"-1" name:"max-pages"`
		Shell    bool   `help:"Write only the empty page shell"`
	} `cmd:"render" help:"Render the feed into a static HTML page."`

	MarkRead struct {
		URL string `arg:"" help:"Post URL to report as read"`
	} `cmd:"mark-read" help:"Report a post as read."`

	History struct {
		Limit  int  `help:"Number of recent entries to show" default:"20"`
		Vacuum bool `help:"Reclaim unused space in the history database"`
	} `cmd:"history" help:"Show recently opened posts."`

	InitConfig struct {
		Outfile string `help:"Output file path" short:"o" default:"config.yaml"`
		Force   bool   `help:"Overwrite an existing file"`
	} `cmd:"init-config" help:"Write an example configuration file."`

	ShowConfig struct{} `cmd:"show-config" help:"Print the effective configuration."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("feed-pager"),
		kong.Description("Page through an RSS reader backend and report opened posts."),
		kong.UsageOnError(),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	// init-config must work before any config exists
	if ctx.Command() == "init-config" {
		if err := initConfig(os.Stdout, CLI.InitConfig.Outfile, CLI.InitConfig.Force); err != nil {
			slog.Error("Failed to write configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if CLI.BaseURL != "" {
		cfg.API.BaseURL = CLI.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if ctx.Command() == "show-config" {
		if err := showConfig(os.Stdout, cfg); err != nil {
			slog.Error("Failed to print configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch ctx.Command() {
	case "browse":
		err = browseFeed(runCtx, a, CLI.Browse.LogFile, CLI.Debug)

	case "render":
		maxPages := CLI.Render.MaxPages
		if maxPages < 0 {
			maxPages = cfg.Render.MaxPages
		}
		err = renderCommand(runCtx, a, os.Stdout, CLI.Render.Outfile, maxPages, CLI.Render.Shell)

	case "mark-read <url>":
		err = markReadCommand(runCtx, a, os.Stdout, CLI.MarkRead.URL)

	case "history":
		err = historyCommand(runCtx, a, os.Stdout, CLI.History.Limit, CLI.History.Vacuum)

	default:
		panic(ctx.Command())
	}

	if err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		a.Close()
		os.Exit(1)
	}
}
