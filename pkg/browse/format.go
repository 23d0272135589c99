// Package browse is an interactive terminal reader over a feed pager.
package browse

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/feed-pager/pkg/dom"
)

// wrapText wraps text to the specified width, breaking at word boundaries when possible
func wrapText(text string, width int) string {
	if width <= 0 {
		width = 70
	}

	var result strings.Builder
	var line strings.Builder
	lineLen := 0

	words := strings.Fields(text)
	for i, word := range words {
		wordLen := utf8.RuneCountInString(word)

		// If adding this word would exceed width, start a new line
		if lineLen > 0 && lineLen+1+wordLen > width {
			result.WriteString(line.String())
			result.WriteString("\n")
			line.Reset()
			lineLen = 0
		}

		if lineLen > 0 {
			line.WriteString(" ")
			lineLen++
		}

		line.WriteString(word)
		lineLen += wordLen

		if i == len(words)-1 {
			result.WriteString(line.String())
		}
	}

	return result.String()
}

// truncate shortens s to max runes with an ellipsis
func truncate(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

// FormatCompactCard formats a card as the lines of one list entry.
// Example: " 1. Post Title" / "    a.example · 2024-01-01 10:00:00" / "    first words of the snippet..."
func FormatCompactCard(index int, card dom.Card, width int) []string {
	if width <= 0 {
		width = 80
	}
	const indent = "    "

	lines := []string{
		truncate(fmt.Sprintf("%2d. %s", index+1, card.Title), width),
	}

	meta := card.Host
	if card.Date != "" {
		if meta != "" {
			meta += " · "
		}
		meta += card.Date
	}
	lines = append(lines, indent+truncate(meta, width-len(indent)))

	if card.Content != "" {
		lines = append(lines, indent+truncate(card.Content, width-len(indent)))
	}
	return lines
}

// FormatDetailedCard formats a card with all of its fields
func FormatDetailedCard(card dom.Card) string {
	var b strings.Builder

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Title: %s\n", card.Title)
	fmt.Fprintf(&b, "Link: %s\n", card.Href)
	fmt.Fprintf(&b, "Source: %s\n", card.Host)

	if card.Date != "" {
		fmt.Fprintf(&b, "Posted on: %s\n", card.Date)
	}
	if card.Image != "" {
		fmt.Fprintf(&b, "Image: %s\n", card.Image)
	}

	if card.Content != "" {
		const maxContentLength = 1000
		content := truncate(card.Content, maxContentLength)
		fmt.Fprintf(&b, "\nContent:\n%s\n", wrapText(content, 70))
	}

	b.WriteString("═══════════════════════════════════════════════════════════════════════\n")

	return b.String()
}

// FormatTimeAgo formats a time.Time as a human-readable "X ago" string
func FormatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	case duration < 7*24*time.Hour:
		return plural(int(duration.Hours()/24), "day")
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
