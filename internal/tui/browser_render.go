package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// statusLine shows, in priority order: a pending delete prompt, the
// in-flight action, the last error, then the last success message.
func (m BrowserModel) statusLine() string {
	if m.confirm != nil {
		return StyleHighlight.Render("Delete \"" + m.confirm.Book.Title + "\" (" + m.confirm.Book.ID + ")? y/n")
	}
	st := m.opts.Store.State()
	switch {
	case m.pending != "":
		return lipgloss.NewStyle().Foreground(ColorYellow).Render(m.pending + "…")
	case st.Busy:
		return lipgloss.NewStyle().Foreground(ColorYellow).Render(st.Op + "…")
	case m.err != nil:
		return StyleError.Render("✗ "+m.err.Error()) + StyleHelp.Render("  (esc to dismiss)")
	case st.LastError != nil:
		return StyleError.Render("✗ "+st.LastError.Error()) + StyleHelp.Render("  (esc to dismiss)")
	case m.status != "":
		return StyleSuccess.Render("✓ " + m.status)
	}
	return ""
}

func (m BrowserModel) renderFooter() string {
	return RenderFooterBar([]ShortcutEntry{
		{Key: "", Label: "↑/↓ navigate"},
		{Key: "/", Label: "/ filter"},
		{Key: "v", Label: "v view"},
		{Key: "g", Label: "g download"},
		{Key: "x", Label: "x delete"},
		{Key: "r", Label: "r refresh"},
		{Key: "", Label: "q quit"},
	}, m.activeCmd)
}

func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	outerStyle := lipgloss.NewStyle().Padding(2, 4)
	masterStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTeal)

	innerWidth := m.width - (4 * 2) - 2
	if innerWidth < 60 {
		innerWidth = 60
	}
	if m.width > 0 && m.height > 0 {
		innerHeight := m.height - (2 * 2) - 2
		if innerHeight < 10 {
			innerHeight = 10
		}
		masterStyle = masterStyle.Width(innerWidth).Height(innerHeight)
	}

	var body string
	if len(m.list.Items()) == 0 {
		body = StyleHelp.Render("No books in the catalog. Press r to refresh.")
	} else {
		body = m.list.View()
	}

	divider := lipgloss.NewStyle().
		Foreground(ColorTeal).
		Render(strings.Repeat("─", innerWidth))

	content := lipgloss.JoinVertical(lipgloss.Left,
		body,
		divider,
		" "+truncateText(m.statusLine(), innerWidth-1),
		m.renderFooter(),
	)
	return outerStyle.Render(masterStyle.Render(content))
}
