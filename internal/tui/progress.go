package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// reportEvery bounds how often a ProgressReader publishes its count.
const reportEvery = 256 << 10

// ProgressReader wraps an io.Reader and reports the running byte count
// through a channel. Updates are dropped rather than blocking the transfer.
type ProgressReader struct {
	reader     io.Reader
	total      int64
	read       int64
	lastReport int64
	ch         chan<- int64
}

// NewProgressReader creates a reader that reports progress. total may be
// -1 when unknown.
func NewProgressReader(r io.Reader, total int64, ch chan<- int64) *ProgressReader {
	return &ProgressReader{reader: r, total: total, ch: ch}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)

	if pr.ch != nil && n > 0 {
		done := err == io.EOF || (pr.total > 0 && pr.read >= pr.total)
		if pr.read-pr.lastReport >= reportEvery || done {
			select {
			case pr.ch <- pr.read:
				pr.lastReport = pr.read
			default:
			}
		}
	}
	return n, err
}

// progressMsg carries a byte count; -1 means the transfer finished.
type progressMsg int64

type tickMsg time.Time

type progressModel struct {
	progress   progress.Model
	total      int64
	current    int64
	label      string
	done       bool
	cancelled  bool
	progressCh <-chan int64
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForProgress(m.progressCh))
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForProgress(ch <-chan int64) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return progressMsg(-1)
		}
		return progressMsg(n)
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.cancelled = true
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, tea.Quit
		}
		return m, tickCmd()

	case progressMsg:
		if msg == -1 {
			m.done = true
			return m, tea.Quit
		}
		m.current = int64(msg)
		return m, waitForProgress(m.progressCh)

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	if m.total <= 0 {
		return fmt.Sprintf("%s\n%s transferred\n", m.label, formatBytes(m.current))
	}
	percent := float64(m.current) / float64(m.total)
	if percent > 1 {
		percent = 1
	}
	return fmt.Sprintf("%s\n%s\n%s / %s (%.0f%%)\n",
		m.label,
		m.progress.ViewAs(percent),
		formatBytes(m.current),
		formatBytes(m.total),
		percent*100)
}

// ShowProgress displays a progress bar until progressCh is closed.
// Returns an error if the user pressed Ctrl+C.
func ShowProgress(label string, total int64, progressCh <-chan int64) error {
	m := progressModel{
		progress:   progress.New(progress.WithDefaultGradient()),
		total:      total,
		label:      label,
		progressCh: progressCh,
	}
	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(progressModel); ok && fm.cancelled {
		return fmt.Errorf("cancelled by user")
	}
	return nil
}

// RunWithProgress runs fn in the background while showing a progress bar.
// fn receives a wrapper to apply to the stream it transfers; total may be
// -1. The bar closes when fn returns, and fn's error is returned.
func RunWithProgress(label string, total int64, fn func(wrap func(io.Reader, int64) io.Reader) error) error {
	ch := make(chan int64, 16)
	errc := make(chan error, 1)
	go func() {
		defer close(ch)
		errc <- fn(func(r io.Reader, n int64) io.Reader {
			if n <= 0 {
				n = total
			}
			return NewProgressReader(r, n, ch)
		})
	}()
	if err := ShowProgress(label, total, ch); err != nil {
		return err
	}
	return <-errc
}
