package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/bookstorectl/internal/catalog"
)

// BookItem is one book row in the browser.
type BookItem struct {
	Book     catalog.Book
	Category string
}

// FilterValue returns the text the list filter matches against.
func (b BookItem) FilterValue() string {
	return b.Book.Title + " " + b.Category + " " + b.Book.ID
}

// categoryItem is a non-actionable heading row.
type categoryItem struct {
	name  string
	count int
}

func (c categoryItem) FilterValue() string { return c.name }

// itemsFromGroup flattens a category group into list rows: a heading per
// category followed by its books, in group order.
func itemsFromGroup(g catalog.CategoryGroup) []list.Item {
	items := make([]list.Item, 0, len(g.Names)*2)
	for _, name := range g.Names {
		books := g.Get(name)
		items = append(items, categoryItem{name: name, count: len(books)})
		for _, b := range books {
			items = append(items, BookItem{Book: b, Category: name})
		}
	}
	return items
}

// truncateText truncates a string to maxWidth cells with an ellipsis.
func truncateText(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return xansi.Truncate(s, maxWidth, "…")
}

// padOrTruncate pads s to exactly width cells, truncating with "…" if necessary.
func padOrTruncate(s string, width int) string {
	s = truncateText(s, width)
	if w := xansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// formatBytes formats bytes as human-readable size
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n := n / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

const (
	formatWidth = 6
	sizeWidth   = 10
	columnGap   = 1
)

// bookDelegate renders headings and book rows with fixed-width columns.
type bookDelegate struct{}

func (d bookDelegate) Height() int                             { return 1 }
func (d bookDelegate) Spacing() int                            { return 0 }
func (d bookDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	width := m.Width()
	if width <= 0 {
		width = 80
	}

	switch it := item.(type) {
	case categoryItem:
		heading := fmt.Sprintf("%s (%d)", it.name, it.count)
		_, _ = fmt.Fprint(w, StyleCategory.Render(truncateText(heading, width)))

	case BookItem:
		isCursor := index == m.Index()
		prefix := "    "
		if isCursor {
			prefix = "  " + lipgloss.NewStyle().Foreground(ColorOrange).Render("›") + " "
		}
		gap := strings.Repeat(" ", columnGap)
		titleW := width - 4 - formatWidth - sizeWidth - 2*columnGap
		if titleW < 12 {
			titleW = 12
		}

		title := padOrTruncate(it.Book.Title, titleW)
		format := padOrTruncate(it.Book.Format, formatWidth)
		size := ""
		if it.Book.Size > 0 {
			size = formatBytes(it.Book.Size)
		}
		size = padOrTruncate(size, sizeWidth)

		if isCursor {
			title = StyleHighlight.Render(title)
		} else {
			title = StyleNormal.Render(title)
		}
		_, _ = fmt.Fprint(w, prefix+title+gap+StyleHelp.Render(format)+gap+StyleHelp.Render(size))
	}
}
