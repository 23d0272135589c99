// Package render turns posts into HTML card fragments and page shells.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lepinkainen/feed-pager/pkg/dom"
	"github.com/lepinkainen/feed-pager/pkg/feedtypes"
	"github.com/lepinkainen/feed-pager/pkg/urlutils"
)

const (
	// DefaultPlaceholder is shown when a post has no image or it fails to load
	DefaultPlaceholder = "/static/assets/img/default-placeholder.png"
	// DefaultFavicon is shown when a post has no favicon
	DefaultFavicon = "/static/assets/img/favicon.png"

	cardTemplate = "card.tmpl"
	pageTemplate = "page.tmpl"
)

// Config holds card rendering settings
type Config struct {
	Placeholder string
	Favicon     string
	// AssetBase resolves relative image and favicon paths when set
	AssetBase string
	// DateLayout is a Go time layout; empty keeps post_date as sent
	DateLayout string
}

// DefaultConfig returns the asset paths the feed backend serves
func DefaultConfig() Config {
	return Config{
		Placeholder: DefaultPlaceholder,
		Favicon:     DefaultFavicon,
	}
}

// Renderer renders posts with html/template
type Renderer struct {
	config Config
	policy *bluemonday.Policy
	card   *template.Template
	page   *template.Template
}

// cardData is the view a card template renders
type cardData struct {
	feedtypes.Post
	Key         string
	Placeholder string
}

// PageData is the view the page shell renders
type PageData struct {
	Title       string
	ContainerID string
	Stylesheets []string
}

// New loads the card and page templates and prepares a renderer
func New(config Config) (*Renderer, error) {
	if config.Placeholder == "" {
		config.Placeholder = DefaultPlaceholder
	}
	if config.Favicon == "" {
		config.Favicon = DefaultFavicon
	}

	r := &Renderer{
		config: config,
		policy: bluemonday.UGCPolicy(),
	}

	var err error
	if r.card, err = r.loadTemplate(cardTemplate); err != nil {
		return nil, err
	}
	if r.page, err = r.loadTemplate(pageTemplate); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) loadTemplate(name string) (*template.Template, error) {
	content, err := readTemplate(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(r.funcMap()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// RenderCard renders one post as an HTML fragment
func (r *Renderer) RenderCard(post feedtypes.Post) (string, error) {
	data := cardData{
		Post:        post,
		Key:         post.Key(),
		Placeholder: r.asset(r.config.Placeholder),
	}
	data.ImageURL = r.asset(firstNonEmpty(post.ImageURL, r.config.Placeholder))
	data.FaviconURL = r.asset(firstNonEmpty(post.FaviconURL, r.config.Favicon))

	var buf bytes.Buffer
	if err := r.card.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", cardTemplate, err)
	}
	return buf.String(), nil
}

// RenderPage writes an empty page shell holding the posts container
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	if data.ContainerID == "" {
		data.ContainerID = dom.DefaultContainerID
	}
	if err := r.page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", pageTemplate, err)
	}
	return nil
}

// NewDocument renders the page shell and parses it into a document
func (r *Renderer) NewDocument(data PageData) (*dom.Document, error) {
	var buf bytes.Buffer
	if err := r.RenderPage(&buf, data); err != nil {
		return nil, err
	}
	return dom.Parse(&buf)
}

// asset resolves a relative asset path against the configured base
func (r *Renderer) asset(path string) string {
	if r.config.AssetBase == "" || urlutils.IsValidURL(path) {
		return path
	}
	resolved, err := urlutils.ResolveURL(r.config.AssetBase, path)
	if err != nil {
		slog.Debug("Failed to resolve asset URL", "path", path, "base", r.config.AssetBase, "error", err)
		return path
	}
	return resolved
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
