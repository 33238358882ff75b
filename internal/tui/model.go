package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/interdiff-go/internal/app"
	"github.com/thiagokokada/interdiff-go/internal/debounce"
	"github.com/thiagokokada/interdiff-go/internal/jobs"
)

const resizeDebounceDelay = 150 * time.Millisecond

type (
	resultMsg      struct{ result app.Result }
	workerStopped  struct{}
	repoChangedMsg struct{}
	rerenderMsg    struct{}
)

// pipeline is the part of the job pipeline the model drives.
type pipeline interface {
	Submit(job app.Job) error
	Next(ctx context.Context) (app.Result, bool)
}

// Model adapts app.State to bubbletea. It owns the state and is only touched
// from the program's update loop.
type Model struct {
	ctx      context.Context
	state    app.State
	pipeline pipeline
	keys     keyMap
	view     viewStyles
	diff     diffStyles

	doc     diffDocument
	docText string
	flash   string

	resize *debounce.Debouncer
	send   func(tea.Msg)
	copy   func(string)

	err error
}

func newModel(ctx context.Context, p pipeline, palette colorPalette, syntax bool) *Model {
	return &Model{
		ctx:      ctx,
		state:    app.New(0, 0),
		pipeline: p,
		keys:     defaultKeyMap(),
		view:     newViewStyles(palette),
		diff:     newDiffStyles(palette, syntax),
		copy:     copyToClipboard,
	}
}

// Err is the fatal error that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	state, js := m.state.Start()
	m.state = state
	if cmd := m.submit(js); cmd != nil {
		return cmd
	}
	return m.listen()
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		res, ok := m.pipeline.Next(m.ctx)
		if !ok {
			return workerStopped{}
		}
		return resultMsg{result: res}
	}
}

func (m *Model) submit(js []app.Job) tea.Cmd {
	for _, job := range js {
		if err := m.pipeline.Submit(job); err != nil {
			m.err = fmt.Errorf("submit job %d: %w", job.ID, err)
			return tea.Quit
		}
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		ev := m.keys.eventFor(m.state.Screen(), msg)
		if ev == nil {
			return m, nil
		}
		if _, ok := ev.(app.CopyToClipboard); ok {
			return m, m.copyDiff()
		}
		m.flash = ""
		return m, m.apply(ev)
	case tea.WindowSizeMsg:
		cmd := m.apply(app.Resize{Width: msg.Width, Height: max(msg.Height-chromeHeight, 1)})
		if _, ok := m.state.Screen().(app.DiffView); ok {
			m.scheduleRerender()
		}
		return m, cmd
	case rerenderMsg:
		return m, m.apply(app.Rerender{})
	case repoChangedMsg:
		slog.Debug("repository changed")
		return m, m.apply(app.RepoChanged{})
	case resultMsg:
		state, js := m.state.HandleResult(msg.result)
		m.state = state
		m.syncDocument()
		if cmd := m.submit(js); cmd != nil {
			return m, cmd
		}
		return m, m.listen()
	case workerStopped:
		if !m.state.Done() {
			m.err = fmt.Errorf("%w: worker stopped unexpectedly", jobs.ErrProcess)
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) apply(ev app.Event) tea.Cmd {
	state, js := m.state.HandleEvent(ev)
	m.state = state
	m.syncDocument()
	if state.Done() {
		return tea.Quit
	}
	return m.submit(js)
}

// syncDocument splits the open diff into lines once per rendered text.
func (m *Model) syncDocument() {
	view, ok := m.state.Screen().(app.DiffView)
	if !ok {
		m.doc, m.docText = diffDocument{}, ""
		return
	}
	if view.Text != m.docText || m.doc.lines == nil {
		m.doc, m.docText = newDiffDocument(view.Text), view.Text
	}
}

func (m *Model) scheduleRerender() {
	d := debounce.Ensure(&m.resize, resizeDebounceDelay, func() {
		if m.send != nil {
			m.send(rerenderMsg{})
		}
	})
	d.Trigger()
}

func (m *Model) copyDiff() tea.Cmd {
	view, ok := m.state.Screen().(app.DiffView)
	if !ok {
		return nil
	}
	m.copy(view.Text)
	m.flash = "Copied diff to clipboard"
	return nil
}

func (m *Model) stop() {
	if m.resize != nil {
		m.resize.Stop()
	}
}

func (m *Model) View() string {
	width, height := m.state.Size()
	screen := m.state.Screen()
	if _, ok := screen.(app.Exit); ok {
		return ""
	}

	header := headerText(screen)
	if m.state.Busy() {
		header += " …"
	}
	title, body := m.body(screen, height)

	footer := m.view.footer.Render(footerText(screen))
	if view, ok := screen.(app.ListView); ok && view.Notice != "" {
		footer = m.view.errorMsg.Render(view.Notice)
	} else if m.flash != "" {
		footer = m.view.footer.Render(m.flash)
	}

	var b strings.Builder
	b.WriteString(m.view.header.Render(header))
	b.WriteByte('\n')
	b.WriteString(m.view.title.Render(title))
	b.WriteByte('\n')
	for _, line := range body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for range max(height-len(body), 0) {
		b.WriteByte('\n')
	}
	b.WriteString(footer)
	return clip(b.String(), width)
}

func (m *Model) body(screen app.Screen, height int) (string, []string) {
	switch s := screen.(type) {
	case app.Loading:
		return s.Message, nil
	case app.ErrorScreen:
		msg := s.Message
		if msg == "" {
			msg = "An error occurred"
		}
		return "", strings.Split(m.view.errorMsg.Render(msg), "\n")
	case app.ListView:
		rows := s.Visible()
		start := listWindow(s.Selected, len(rows), height)
		end := min(start+max(height, 1), len(rows))
		out := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			line := m.view.row(rows[i])
			if i == s.Selected {
				line = m.view.selected.Render(plainRow(rows[i]))
			}
			out = append(out, line)
		}
		return listTitle(s), out
	case app.DiffView:
		lines := len(m.doc.lines)
		title := fmt.Sprintf("Interdiff View: %s  %d / %d", s.Title, s.Scroll, lines)
		start := min(s.Scroll, lines)
		end := min(start+max(height, 1), lines)
		out := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, m.diff.line(m.doc, i))
		}
		return title, out
	}
	return "", nil
}
