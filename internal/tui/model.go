package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/inventory"
)

// session carries the channels of one background discovery session
type session struct {
	responses <-chan discovery.Response
	done      <-chan error
}

// Messages for the background session
type responseMsg struct {
	response discovery.Response
	session  *session
}

type sessionDoneMsg struct {
	err error
}

// keyMap defines key bindings for the discovery view
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Rescan, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Rescan: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rescan"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model for the live discovery view
type Model struct {
	cfg    discovery.Config
	ctx    context.Context
	cancel context.CancelFunc

	spinner spinner.Model
	table   table.Model
	help    help.Model

	scanning bool
	err      error
}

// New creates the view. The first session starts with the program.
func New(ctx context.Context, cfg discovery.Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	columns := make([]table.Column, len(inventory.Columns))
	for i, col := range inventory.Columns {
		columns[i] = table.Column{Title: col.Title, Width: col.Width}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
	)
	t.SetStyles(tableStyles())

	ctx, cancel := context.WithCancel(ctx)

	return Model{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		spinner:  s,
		table:    t,
		help:     help.New(),
		scanning: true,
	}
}

// Init starts the first discovery session
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, startSession(m.ctx, m.cfg))
}

// startSession runs a fresh discovery session in the background and
// delivers its first message.
func startSession(ctx context.Context, cfg discovery.Config) tea.Cmd {
	return func() tea.Msg {
		responses := make(chan discovery.Response)
		done := make(chan error, 1)

		go func() {
			defer close(responses)
			done <- discovery.Run(ctx, cfg, func(r discovery.Response) error {
				select {
				case responses <- r:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		return waitForSession(&session{responses: responses, done: done})()
	}
}

// waitForSession delivers the next response, or the session result once
// the response channel is closed.
func waitForSession(s *session) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-s.responses
		if !ok {
			return sessionDoneMsg{err: <-s.done}
		}
		return responseMsg{response: r, session: s}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, keys.Rescan):
			if m.scanning {
				return m, nil
			}
			m.scanning = true
			m.err = nil
			m.table.SetRows([]table.Row{})
			return m, tea.Batch(m.spinner.Tick, startSession(m.ctx, m.cfg))
		}

	case responseMsg:
		row := table.Row(inventory.NewRow(msg.response).Cells())
		m.table.SetRows(append(m.table.Rows(), row))
		return m, waitForSession(msg.session)

	case sessionDoneMsg:
		m.scanning = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.scanning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the discovery view
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("LANPROBE  %s", m.cfg.TargetAddr())))
	b.WriteString("\n")
	b.WriteString(tableBorderStyle.Render(m.table.View()))
	b.WriteString("\n")

	count := len(m.table.Rows())
	switch {
	case m.scanning:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(),
			StatusStyle.Render(fmt.Sprintf("Probing %s (%d so far)...", m.cfg.TargetAddr(), count))))
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("✗ %v", m.err)))
	default:
		b.WriteString(DoneStyle.Render(fmt.Sprintf("✓ %d device(s) found", count)))
	}
	b.WriteString("\n")

	b.WriteString(HelpStyle.Render(m.help.View(keys)))
	b.WriteString("\n")

	return b.String()
}

// Err returns the error of the last session, nil if it ended on timeout
func (m Model) Err() error {
	return m.err
}

// Rows returns the rows currently shown
func (m Model) Rows() []table.Row {
	return m.table.Rows()
}

// Run starts the interactive view and blocks until the user quits.
// A fatal error from the last session is returned.
func Run(ctx context.Context, cfg discovery.Config) error {
	p := tea.NewProgram(New(ctx, cfg), tea.WithContext(ctx))

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("interactive view error: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil
	}
	m.cancel()
	return m.Err()
}
