package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/lepinkainen/feed-pager/internal/config"
	"github.com/lepinkainen/feed-pager/pkg/api"
	"github.com/lepinkainen/feed-pager/pkg/dom"
	"github.com/lepinkainen/feed-pager/pkg/feedtypes"
	"github.com/lepinkainen/feed-pager/pkg/testutil"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.LoadConfig(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.API.BaseURL = baseURL
	cfg.API.LogAttempts = 1
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func testApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()

	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func post(url, title string) feedtypes.Post {
	return feedtypes.Post{URL: url, BaseURL: "https://a.example", Title: title, Content: "C", PostDate: "2024-01-01"}
}

func renderedURLs(t *testing.T, html string) []string {
	t.Helper()

	doc, err := dom.Parse(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	container := doc.Container(dom.DefaultContainerID)
	if container == nil {
		t.Fatal("rendered page has no posts container")
	}

	var urls []string
	for _, card := range container.Cards() {
		urls = append(urls, card.DataURL)
	}
	return urls
}

func TestRenderCommand(t *testing.T) {
	server := testutil.NewFeedServer(t)
	server.SetPage(t, 1, feedtypes.PageResponse{
		Posts:   []feedtypes.Post{post("https://a.example/1", "One"), post("https://a.example/2", "Two")},
		HasMore: true,
	})
	server.SetPage(t, 2, feedtypes.PageResponse{
		Posts:   []feedtypes.Post{post("https://a.example/2", "Two again"), post("https://a.example/3", "Three")},
		HasMore: false,
	})

	tests := []struct {
		name      string
		maxPages  int
		wantURLs  []string
		wantPages []int
	}{
		{
			name:      "until the feed ends",
			maxPages:  0,
			wantURLs:  []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"},
			wantPages: []int{1, 2},
		},
		{
			name:      "first page only",
			maxPages:  1,
			wantURLs:  []string{"https://a.example/1", "https://a.example/2"},
			wantPages: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(server.PageRequests())
			a := testApp(t, testConfig(t, server.URL))
			outfile := filepath.Join(t.TempDir(), "out", "feed.html")

			if err := renderCommand(context.Background(), a, nil, outfile, tt.maxPages, false); err != nil {
				t.Fatalf("renderCommand() error = %v", err)
			}

			data, err := os.ReadFile(outfile)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if got := renderedURLs(t, string(data)); !slices.Equal(got, tt.wantURLs) {
				t.Errorf("rendered URLs = %v, want %v", got, tt.wantURLs)
			}
			if got := server.PageRequests()[before:]; !slices.Equal(got, tt.wantPages) {
				t.Errorf("page requests = %v, want %v", got, tt.wantPages)
			}
		})
	}
}

func TestRenderCommand_PageErrorWritesNothing(t *testing.T) {
	server := testutil.NewFeedServer(t)
	server.SetPageRaw(1, http.StatusInternalServerError, `{"error":"boom"}`)

	a := testApp(t, testConfig(t, server.URL))
	outfile := filepath.Join(t.TempDir(), "feed.html")

	if err := renderCommand(context.Background(), a, nil, outfile, 0, false); err == nil {
		t.Fatal("renderCommand() should fail when a page fails")
	}
	if _, err := os.Stat(outfile); !os.IsNotExist(err) {
		t.Errorf("output file should not exist, stat error = %v", err)
	}
}

func TestRenderCommand_ShellToStdout(t *testing.T) {
	server := testutil.NewFeedServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Render.Title = "My Feed"
	a := testApp(t, cfg)

	var out bytes.Buffer
	if err := renderCommand(context.Background(), a, &out, "-", 0, true); err != nil {
		t.Fatalf("renderCommand() error = %v", err)
	}

	if !strings.Contains(out.String(), `id="posts-container"`) {
		t.Errorf("shell missing container:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "My Feed") {
		t.Errorf("shell missing title:\n%s", out.String())
	}
	if len(server.PageRequests()) != 0 {
		t.Errorf("shell should not fetch pages, got %v", server.PageRequests())
	}
}

func TestRenderCommand_TemplatesDir(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("..", "..", "templates", "page.tmpl"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	dir := t.TempDir()
	local := strings.Replace(string(page), "<main", "<!-- local layout --><main", 1)
	if err := os.WriteFile(filepath.Join(dir, "page.tmpl"), []byte(local), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	server := testutil.NewFeedServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Render.TemplatesDir = dir
	a := testApp(t, cfg)

	var out bytes.Buffer
	if err := renderCommand(context.Background(), a, &out, "-", 0, true); err != nil {
		t.Fatalf("renderCommand() error = %v", err)
	}
	if !strings.Contains(out.String(), "<!-- local layout -->") {
		t.Errorf("shell should use the local page.tmpl:\n%s", out.String())
	}

	cfg.Render.TemplatesDir = ""
	a = testApp(t, cfg)
	out.Reset()
	if err := renderCommand(context.Background(), a, &out, "-", 0, true); err != nil {
		t.Fatalf("renderCommand() error = %v", err)
	}
	if strings.Contains(out.String(), "local layout") {
		t.Error("empty templates_dir should use the embedded page.tmpl")
	}
}

func TestMarkReadCommand(t *testing.T) {
	server := testutil.NewFeedServer(t)
	a := testApp(t, testConfig(t, server.URL))
	ctx := context.Background()

	var out bytes.Buffer
	if err := markReadCommand(ctx, a, &out, "https://a.example/1"); err != nil {
		t.Fatalf("markReadCommand() error = %v", err)
	}
	if !strings.Contains(out.String(), "Marked as read: https://a.example/1") {
		t.Errorf("output = %q", out.String())
	}

	bodies := server.LogBodies()
	if len(bodies) != 1 || bodies[0] != `{"rss_feed_content_url":"https://a.example/1"}` {
		t.Errorf("log bodies = %v", bodies)
	}

	server.SetLogStatus(http.StatusUnauthorized)
	err := markReadCommand(ctx, a, &out, "https://a.example/2")
	if err == nil || !strings.Contains(err.Error(), "api.session_cookie") {
		t.Errorf("unauthorized error = %v, want credential hint", err)
	}

	entries, err := a.history.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	logged := map[string]bool{}
	for _, e := range entries {
		logged[e.URL] = e.Logged
	}
	if !logged["https://a.example/1"] || logged["https://a.example/2"] {
		t.Errorf("logged flags = %v", logged)
	}
}

func TestHistoryCommand(t *testing.T) {
	server := testutil.NewFeedServer(t)
	a := testApp(t, testConfig(t, server.URL))
	ctx := context.Background()

	var out bytes.Buffer
	if err := historyCommand(ctx, a, &out, 10, false); err != nil {
		t.Fatalf("historyCommand() error = %v", err)
	}
	if !strings.Contains(out.String(), "No posts opened yet") {
		t.Errorf("empty history output = %q", out.String())
	}

	if err := a.markRead(ctx, "https://a.example/1"); err != nil {
		t.Fatalf("markRead() error = %v", err)
	}

	out.Reset()
	if err := historyCommand(ctx, a, &out, 10, true); err != nil {
		t.Fatalf("historyCommand() error = %v", err)
	}
	for _, want := range []string{"https://a.example/1 (logged)", "total_clicks:", "sqlite_version:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("history output missing %q:\n%s", want, out.String())
		}
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	cfg := testConfig(t, "http://localhost:5090")
	cfg.History.Enabled = false
	a := testApp(t, cfg)

	if err := historyCommand(context.Background(), a, &bytes.Buffer{}, 10, false); err != errHistoryDisabled {
		t.Errorf("historyCommand() error = %v, want errHistoryDisabled", err)
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := initConfig(&bytes.Buffer{}, path, false); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config should validate: %v", err)
	}

	if err := initConfig(&bytes.Buffer{}, path, false); err == nil {
		t.Error("initConfig() should refuse to overwrite")
	}
	if err := initConfig(&bytes.Buffer{}, path, true); err != nil {
		t.Errorf("initConfig(force) error = %v", err)
	}
}

func TestShowConfig_MasksCredentials(t *testing.T) {
	cfg := testConfig(t, "http://localhost:5090")
	cfg.API.BearerToken = "secret-token"
	cfg.API.SessionCookie = "secret-cookie"

	var out bytes.Buffer
	if err := showConfig(&out, cfg); err != nil {
		t.Fatalf("showConfig() error = %v", err)
	}

	text := out.String()
	if strings.Contains(text, "secret-token") || strings.Contains(text, "secret-cookie") {
		t.Errorf("credentials leaked:\n%s", text)
	}
	for _, want := range []string{"base_url: http://localhost:5090", "container_id: posts-container", "threshold: 50"} {
		if !strings.Contains(text, want) {
			t.Errorf("showConfig() missing %q:\n%s", want, text)
		}
	}
	if cfg.API.BearerToken != "secret-token" {
		t.Error("showConfig() must not modify the loaded config")
	}
}

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name        string
		minInterval time.Duration
		burst       int
		want        string
	}{
		{"disabled", 0, 0, "noop"},
		{"fixed interval", time.Second, 0, "simple"},
		{"burst", time.Second, 5, "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.API.MinInterval = tt.minInterval
			cfg.API.Burst = tt.burst

			var got string
			switch newRateLimiter(cfg).(type) {
			case *api.NoOpRateLimiter:
				got = "noop"
			case *api.SimpleRateLimiter:
				got = "simple"
			case *api.TokenBucketRateLimiter:
				got = "bucket"
			}
			if got != tt.want {
				t.Errorf("newRateLimiter() = %s, want %s", got, tt.want)
			}
		})
	}
}
