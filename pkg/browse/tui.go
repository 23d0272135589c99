package browse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lepinkainen/feed-pager/pkg/dom"
	"github.com/lepinkainen/feed-pager/pkg/pager"
)

// DefaultRowsPerCard is the terminal height of one list entry, spacer included
const DefaultRowsPerCard = 4

// Feed is the part of the pager the reader drives
type Feed interface {
	Start(ctx context.Context) (pager.Result, error)
	OnScroll(ctx context.Context, viewport pager.Viewport) (pager.Result, error)
	ClickCard(index int) (href string, logged bool)
	Cards() []dom.Card
	State() pager.State
}

// ViewMode represents the current view mode
type ViewMode int

// View modes for the reader
const (
	ListViewMode ViewMode = iota
	DetailViewMode
)

type pageLoadedMsg struct {
	result pager.Result
	err    error
}

type openedMsg struct {
	href   string
	logged bool
	err    error
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("12")).
			Bold(true)
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// Model represents the Bubble Tea model for the feed reader
type Model struct {
	ctx         context.Context
	feed        Feed
	opener      Opener
	title       string
	cards       []dom.Card
	cursor      int
	viewMode    ViewMode
	width       int
	height      int
	rowsPerCard int
	status      string
	lastErr     error
}

// NewModel creates a new reader model
func NewModel(ctx context.Context, feed Feed, opener Opener, title string, rowsPerCard int) Model {
	if rowsPerCard <= 0 {
		rowsPerCard = DefaultRowsPerCard
	}
	if title == "" {
		title = "Feed"
	}
	return Model{
		ctx:         ctx,
		feed:        feed,
		opener:      opener,
		title:       title,
		viewMode:    ListViewMode,
		rowsPerCard: rowsPerCard,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	feed, ctx := m.feed, m.ctx
	return func() tea.Msg {
		result, err := feed.Start(ctx)
		return pageLoadedMsg{result: result, err: err}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.scrollCmd()

	case pageLoadedMsg:
		m.cards = m.feed.Cards()
		m.lastErr = msg.err
		if msg.err != nil {
			slog.Error("Error loading page", "error", msg.err)
			return m, nil
		}
		// A loaded page may still leave the list short of the screen
		if msg.result.Outcome == pager.Loaded {
			return m, m.scrollCmd()
		}
		return m, nil

	case openedMsg:
		m.lastErr = msg.err
		if msg.err == nil && msg.href != "" {
			m.status = "Opened " + msg.href
			if msg.logged {
				m.status += " (logged)"
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.viewMode {
		case ListViewMode:
			return m.updateListView(msg)
		case DetailViewMode:
			return m.updateDetailView(msg)
		}
	}

	return m, nil
}

// updateListView handles key presses in list view mode
func (m Model) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.cards) - 1

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < last {
			m.cursor++
		}

	case "pgup":
		m.cursor = max(m.cursor-m.maxVisible(), 0)

	case "pgdown":
		m.cursor = max(min(m.cursor+m.maxVisible(), last), 0)

	case "home", "g":
		m.cursor = 0

	case "end", "G":
		m.cursor = max(last, 0)

	case "enter", "o":
		return m, m.openCmd(m.cursor)

	case "d":
		if len(m.cards) > 0 {
			m.viewMode = DetailViewMode
		}
		return m, nil

	default:
		return m, nil
	}

	return m, m.scrollCmd()
}

// updateDetailView handles key presses in detail view mode
func (m Model) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "d":
		m.viewMode = ListViewMode

	case "enter", "o":
		return m, m.openCmd(m.cursor)
	}

	return m, nil
}

// maxVisible is how many cards fit on screen, or all of them when the size is unknown
func (m Model) maxVisible() int {
	if m.height <= 0 {
		return max(len(m.cards), 1)
	}
	return max((m.height-6)/m.rowsPerCard, 1)
}

// visibleRange keeps the cursor in the middle of the screen when possible
func (m Model) visibleRange() (start, end int) {
	maxVisible := m.maxVisible()
	if maxVisible >= len(m.cards) {
		return 0, len(m.cards)
	}

	start = max(m.cursor-maxVisible/2, 0)
	end = start + maxVisible
	if end > len(m.cards) {
		end = len(m.cards)
		start = max(end-maxVisible, 0)
	}
	return start, end
}

// viewport maps the visible window onto rows, one card per rowsPerCard
func (m Model) viewport() pager.Viewport {
	start, _ := m.visibleRange()
	return pager.Viewport{
		ScrollTop:    start * m.rowsPerCard,
		ClientHeight: m.maxVisible() * m.rowsPerCard,
		ScrollHeight: len(m.cards) * m.rowsPerCard,
	}
}

// scrollCmd checks the viewport against the trigger. Until the first
// WindowSizeMsg the viewport is unknown, so nothing counts as near the bottom.
func (m Model) scrollCmd() tea.Cmd {
	if m.height == 0 || m.feed.State() != pager.Idle {
		return nil
	}
	feed, ctx, viewport := m.feed, m.ctx, m.viewport()
	return func() tea.Msg {
		result, err := feed.OnScroll(ctx, viewport)
		if err == nil && result.Outcome == pager.Skipped {
			return nil
		}
		return pageLoadedMsg{result: result, err: err}
	}
}

func (m Model) openCmd(index int) tea.Cmd {
	if index < 0 || index >= len(m.cards) {
		return nil
	}
	feed, opener := m.feed, m.opener
	return func() tea.Msg {
		href, logged := feed.ClickCard(index)
		if href == "" {
			return nil
		}
		var err error
		if opener != nil {
			err = opener(href)
		}
		return openedMsg{href: href, logged: logged, err: err}
	}
}

// View implements tea.Model
func (m Model) View() string {
	switch m.viewMode {
	case ListViewMode:
		return m.renderListView()
	case DetailViewMode:
		return m.renderDetailView()
	}
	return ""
}

// renderListView renders the list view
func (m Model) renderListView() string {
	var b strings.Builder

	header := fmt.Sprintf("%s (%d posts)", m.title, len(m.cards))
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		lines := FormatCompactCard(i, m.cards[i], m.width-2)
		for j, line := range lines {
			if i == m.cursor && j == 0 {
				b.WriteString(selectedStyle.Render("→ " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.cards) == 0 && m.feed.State() != pager.Loading {
		b.WriteString("  No posts\n\n")
	}

	b.WriteString(m.renderStatus())
	b.WriteString(footerStyle.Render("↑/↓ or j/k: navigate • enter: open • d: details • q: quit"))

	return b.String()
}

// renderStatus describes loading progress and the last error
func (m Model) renderStatus() string {
	var line string
	switch m.feed.State() {
	case pager.Loading:
		line = "Loading more posts..."
	case pager.Terminal:
		line = "End of feed"
	case pager.Inactive:
		line = "Feed unavailable"
	}

	var b strings.Builder
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}
	if line != "" {
		b.WriteString(footerStyle.Render(line))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(footerStyle.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetailView renders the detail view
func (m Model) renderDetailView() string {
	if m.cursor < 0 || m.cursor >= len(m.cards) {
		return "No post selected"
	}

	var b strings.Builder
	b.WriteString(FormatDetailedCard(m.cards[m.cursor]))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("esc: back to list • enter: open • q: quit"))

	return b.String()
}

// Run starts the Bubble Tea program
func Run(ctx context.Context, feed Feed, opener Opener, title string, rowsPerCard int) error {
	p := tea.NewProgram(NewModel(ctx, feed, opener, title, rowsPerCard),
		tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
