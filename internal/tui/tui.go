// Package tui is the terminal review panel: it lists the file changes of a
// reply and lets the user keep or undo each of them.
package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/codex-router/codex.gerrit/internal/app"
	"github.com/codex-router/codex.gerrit/internal/highlight"
	"github.com/codex-router/codex.gerrit/internal/patcher"
	"github.com/codex-router/codex.gerrit/model"
	"github.com/codex-router/codex.gerrit/panel"
)

// --- Styles ---
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---

// ReplyMsg delivers a new reply, for example from a file watcher. It
// supersedes the current review.
type ReplyMsg struct {
	Content string
}

type processedMsg struct {
	panel.Result
	seq int
}

type errorMsg struct {
	err error
	seq int
}

func (e errorMsg) Error() string { return e.err.Error() }

type copiedMsg struct {
	id  string
	err error
}

// --- Model ---

// Options configures the review panel.
type Options struct {
	// Theme is the chroma style for diffs.
	Theme string
	// TranscriptStyle is the glamour style for the transcript view.
	TranscriptStyle string
	NoAnimation     bool
}

type Model struct {
	app         *app.App
	reply       string
	opts        Options
	keys        KeyMap
	help        help.Model
	spinner     spinner.Model
	viewport    viewport.Model
	highlighter *highlight.Highlighter
	renderer    *glamour.TermRenderer

	state          state
	// seq numbers replies; results of older replies are dropped.
	seq            int
	inFlight       bool
	records        []model.FileChangeRecord
	cursor         int
	showTranscript bool
	status         string
	err            error
	width          int
	height         int
}

type state int

const (
	stateProcessing state = iota
	stateReview
	stateError
)

// chrome is the number of lines around the viewport: title, list gap,
// footer and help.
const chrome = 5

func New(a *app.App, reply string, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return Model{
		app:         a,
		reply:       reply,
		opts:        opts,
		keys:        defaultKeyMap(),
		help:        help.New(),
		spinner:     s,
		viewport:    vp,
		highlighter: highlight.New(opts.Theme),
		state:       stateProcessing,
		inFlight:    true,
		width:       80,
		height:      24,
	}
}

func (m Model) Init() tea.Cmd {
	if m.opts.NoAnimation {
		return m.processCmd()
	}
	return tea.Batch(m.spinner.Tick, m.processCmd())
}

// Err returns the processing error that ended the panel, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.renderer = nil
		m.resize()
		m.refreshPreview()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.state == stateReview {
			return m.handleKey(msg)
		}
		return m, nil

	case ReplyMsg:
		wasProcessing := m.state == stateProcessing
		m.seq++
		m.reply = msg.Content
		m.state = stateProcessing
		m.status = "reply changed, reprocessing"
		if m.inFlight {
			// Picked up when the running pass returns.
			return m, nil
		}
		m.inFlight = true
		if m.opts.NoAnimation || wasProcessing {
			return m, m.processCmd()
		}
		return m, tea.Batch(m.spinner.Tick, m.processCmd())

	case processedMsg:
		if msg.seq != m.seq {
			// A newer reply arrived while this pass ran.
			return m, m.processCmd()
		}
		m.inFlight = false
		m.state = stateReview
		m.records = msg.Records
		m.cursor = 0
		m.resize()
		m.refreshPreview()
		return m, nil

	case errorMsg:
		if msg.seq != m.seq {
			// A newer reply arrived while this pass ran.
			return m, m.processCmd()
		}
		m.inFlight = false
		m.state = stateError
		m.err = msg.err
		return m, tea.Quit

	case copiedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("copy failed: " + msg.err.Error())
		} else {
			m.status = fmt.Sprintf("copied %s", msg.id)
		}
		return m, nil

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.app.Session()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refreshPreview()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
			m.refreshPreview()
		}
	case key.Matches(msg, m.keys.Keep):
		m.decide(model.DecisionKept)
	case key.Matches(msg, m.keys.Undo):
		m.decide(model.DecisionUndone)
	case key.Matches(msg, m.keys.Pending):
		m.decide(model.DecisionPending)
	case key.Matches(msg, m.keys.Revert):
		if session.Undo() {
			m.status = "reverted last decision"
		} else {
			m.status = "nothing to revert"
		}
		m.records = session.Records()
	case key.Matches(msg, m.keys.Reapply):
		if session.Redo() {
			m.status = "reapplied decision"
		} else {
			m.status = "nothing to reapply"
		}
		m.records = session.Records()
	case key.Matches(msg, m.keys.Transcript):
		m.showTranscript = !m.showTranscript
		m.refreshPreview()
	case key.Matches(msg, m.keys.Copy):
		if r, ok := m.selected(); ok {
			return m, copyDiff(r)
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) decide(d model.Decision) {
	r, ok := m.selected()
	if !ok {
		return
	}
	session := m.app.Session()
	if session.Decide(r.ID, d) {
		m.status = fmt.Sprintf("%s %s", r.ID, d)
	}
	m.records = session.Records()
}

func (m Model) selected() (model.FileChangeRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return model.FileChangeRecord{}, false
	}
	return m.records[m.cursor], true
}

func (m *Model) resize() {
	m.viewport.Width = m.width
	height := m.height - chrome - len(m.records)
	if height < 3 {
		height = 3
	}
	m.viewport.Height = height
}

func (m *Model) refreshPreview() {
	if m.showTranscript {
		m.viewport.SetContent(m.transcript())
		m.viewport.GotoTop()
		return
	}
	r, ok := m.selected()
	if !ok {
		m.viewport.SetContent(faintStyle.Render("No file changes in this reply."))
		return
	}
	m.viewport.SetContent(m.highlighter.WordDiff(r.DiffText))
	m.viewport.GotoTop()
}

// transcript renders the raw reply with glamour, falling back to the plain
// text when no renderer can be built.
func (m *Model) transcript() string {
	if m.renderer == nil {
		style := glamour.WithStandardStyle(m.opts.TranscriptStyle)
		if m.opts.TranscriptStyle == "" || m.opts.TranscriptStyle == "auto" {
			style = glamour.WithAutoStyle()
		}
		renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(m.width-4))
		if err != nil {
			return m.reply
		}
		m.renderer = renderer
	}
	out, err := m.renderer.Render(m.reply)
	if err != nil {
		return m.reply
	}
	return out
}

// processCmd processes the current reply. Only one pass runs at a time so
// that the session always ends up holding the newest reply.
func (m Model) processCmd() tea.Cmd {
	a, reply, seq := m.app, m.reply, m.seq
	return func() tea.Msg {
		res, err := a.Execute(reply)
		if err != nil {
			return errorMsg{err: err, seq: seq}
		}
		return processedMsg{Result: res, seq: seq}
	}
}

func copyDiff(r model.FileChangeRecord) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{id: r.ID, err: clipboard.WriteAll(r.DiffText)}
	}
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		if m.opts.NoAnimation {
			return "Processing..."
		}
		return fmt.Sprintf("%s Processing...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error())
	case stateReview:
		return m.renderReview()
	default:
		return ""
	}
}

func (m Model) renderReview() string {
	var b strings.Builder

	title := fmt.Sprintf("File changes (%d)", len(m.records))
	if m.showTranscript {
		title = "Transcript"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	for i, r := range m.records {
		added, removed := patcher.Stats(r.DiffText)
		line := fmt.Sprintf("%s %-6s %s %s %s",
			decisionMarker(r.Decision),
			r.ID,
			r.FilePath,
			successStyle.Render(fmt.Sprintf("+%d", added)),
			errorStyle.Render(fmt.Sprintf("-%d", removed)),
		)
		if i == m.cursor {
			line = selectedStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(renderSummary(m.app.Session().Summary()))
	if m.status != "" {
		b.WriteString(faintStyle.Render("  " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func decisionMarker(d model.Decision) string {
	switch d {
	case model.DecisionKept:
		return successStyle.Render("[kept]   ")
	case model.DecisionUndone:
		return errorStyle.Render("[undone] ")
	default:
		return faintStyle.Render("[pending]")
	}
}

func renderSummary(s model.Summary) string {
	return fmt.Sprintf("%s · %s · %s",
		successStyle.Render(fmt.Sprintf("%d kept", s.Kept)),
		errorStyle.Render(fmt.Sprintf("%d undone", s.Undone)),
		faintStyle.Render(fmt.Sprintf("%d pending", s.Pending)),
	)
}
