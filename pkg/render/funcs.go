package render

import (
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/feed-pager/pkg/urlutils"
)

// inputDateLayouts are the post_date shapes the backend is known to send
var inputDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// funcMap returns the template helpers bound to this renderer's settings
func (r *Renderer) funcMap() template.FuncMap {
	return template.FuncMap{
		"stripScheme": urlutils.StripScheme,
		"formatDate":  r.formatDate,
		"truncate":    truncateText,
		"safeContent": r.safeContent,
	}
}

// formatDate reformats a known date shape to the configured layout.
// Anything unparseable, or any date when no layout is set, is shown as sent.
func (r *Renderer) formatDate(s string) string {
	if r.config.DateLayout == "" {
		return s
	}
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.Format(r.config.DateLayout)
		}
	}
	return s
}

// safeContent sanitises the pre-rendered snippet and marks it as trusted HTML
func (r *Renderer) safeContent(s string) template.HTML {
	return template.HTML(r.policy.Sanitize(s))
}

// truncateText truncates text to at most maxLen runes
func truncateText(s string, maxLen int) string {
	if maxLen <= 3 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
