package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/bookstorectl/internal/access"
	"github.com/blackwell-systems/bookstorectl/internal/store"
)

// BrowserOptions wires the browser to the store and to the app's side
// effects.
type BrowserOptions struct {
	Context  context.Context
	Store    *store.Store
	Pipeline *store.Pipeline
	Resolver access.Resolver
	// Open shows a resolved view URL, usually in the system browser.
	Open func(url string) error
	// Download saves a resolved download target and returns the local path.
	Download func(ctx context.Context, t access.Target) (string, error)
}

// opResultMsg reports the outcome of a background action.
type opResultMsg struct {
	status string
	err    error
}

// BrowserModel is the interactive catalog browser: books grouped by
// category with view, download, delete and refresh actions.
type BrowserModel struct {
	list      list.Model
	keys      browserKeys
	opts      BrowserOptions
	status    string
	err       error
	pending   string
	confirm   *BookItem
	activeCmd string
	width     int
	height    int
	quitting  bool
}

// NewBrowser builds a browser over the store's current categories.
func NewBrowser(opts BrowserOptions) BrowserModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	keys := newBrowserKeys()
	l := list.New(itemsFromGroup(opts.Store.Categories()), bookDelegate{}, 0, 0)
	l.Title = "Books"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = StyleHeader
	l.Styles.PaginationStyle = StyleHelp
	l.AdditionalShortHelpKeys = keys.shortHelp

	return BrowserModel{list: l, keys: keys, opts: opts}
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// outer padding, border, divider, status and footer lines
		m.list.SetSize(msg.Width-(4*2)-2, msg.Height-(2*2)-2-3)
		return m, nil

	case clearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case opResultMsg:
		m.pending = ""
		m.err = msg.err
		m.status = msg.status
		cmd := m.list.SetItems(itemsFromGroup(m.opts.Store.Categories()))
		return m, cmd

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.dismiss):
			if m.err != nil || m.opts.Store.State().LastError != nil {
				m.err = nil
				m.opts.Store.DismissError()
				return m, nil
			}

		case key.Matches(msg, m.keys.refresh):
			m.activeCmd = "r"
			return m.start("Refreshing catalog", m.refreshCmd())

		case key.Matches(msg, m.keys.view):
			if item, ok := m.selected(); ok {
				m.activeCmd = "v"
				return m.start("Resolving "+item.Book.Title, m.viewCmd(item))
			}
			return m, nil

		case key.Matches(msg, m.keys.get):
			if item, ok := m.selected(); ok {
				m.activeCmd = "g"
				return m.start("Downloading "+item.Book.Title, m.downloadCmd(item))
			}
			return m, nil

		case key.Matches(msg, m.keys.delete):
			if item, ok := m.selected(); ok {
				m.activeCmd = "x"
				m.confirm = &item
				return m, highlightCmd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateConfirm handles the y/n prompt for a pending delete. Either answer
// goes to the pipeline; declining is a no-op there.
func (m BrowserModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := *m.confirm
	switch {
	case key.Matches(msg, m.keys.yes):
		m.confirm = nil
		return m.start("Deleting "+item.Book.Title, m.deleteCmd(item, true))
	case key.Matches(msg, m.keys.no):
		m.confirm = nil
		return m.start("", m.deleteCmd(item, false))
	}
	return m, nil
}

func (m BrowserModel) start(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.pending = label
	m.status = ""
	return m, tea.Batch(cmd, highlightCmd())
}

func (m BrowserModel) selected() (BookItem, bool) {
	item, ok := m.list.SelectedItem().(BookItem)
	return item, ok
}

func (m BrowserModel) refreshCmd() tea.Cmd {
	ctx, s := m.opts.Context, m.opts.Store
	return func() tea.Msg {
		snap, err := s.Refresh(ctx)
		if err != nil {
			return opResultMsg{err: err}
		}
		return opResultMsg{status: fmt.Sprintf("Catalog refreshed: %d books", snap.Len())}
	}
}

func (m BrowserModel) viewCmd(item BookItem) tea.Cmd {
	ctx, r, open := m.opts.Context, m.opts.Resolver, m.opts.Open
	return func() tea.Msg {
		t, err := r.ResolveView(ctx, item.Book.ID)
		if err != nil {
			return opResultMsg{err: err}
		}
		if open == nil {
			return opResultMsg{status: t.URL}
		}
		if err := open(t.URL); err != nil {
			return opResultMsg{err: fmt.Errorf("opening %s: %w", t.URL, err)}
		}
		return opResultMsg{status: "Opened " + item.Book.Title}
	}
}

func (m BrowserModel) downloadCmd(item BookItem) tea.Cmd {
	ctx, r, save := m.opts.Context, m.opts.Resolver, m.opts.Download
	return func() tea.Msg {
		t, err := r.ResolveDownload(ctx, item.Book.ID)
		if err != nil {
			return opResultMsg{err: err}
		}
		if save == nil {
			return opResultMsg{status: t.URL}
		}
		path, err := save(ctx, t)
		if err != nil {
			return opResultMsg{err: err}
		}
		return opResultMsg{status: "Saved to " + path}
	}
}

func (m BrowserModel) deleteCmd(item BookItem, confirmed bool) tea.Cmd {
	ctx, p := m.opts.Context, m.opts.Pipeline
	return func() tea.Msg {
		deleted, err := p.Delete(ctx, item.Book.ID, confirmed)
		switch {
		case err != nil && deleted:
			return opResultMsg{status: "Deleted " + item.Book.Title, err: err}
		case err != nil:
			return opResultMsg{err: err}
		case !deleted:
			return opResultMsg{status: "Kept " + item.Book.Title}
		}
		return opResultMsg{status: "Deleted " + item.Book.Title}
	}
}

// RunBrowser launches the interactive browser and blocks until it exits.
func RunBrowser(opts BrowserOptions) error {
	p := tea.NewProgram(NewBrowser(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
