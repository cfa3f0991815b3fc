package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	translation "github.com/koscakluka/ema-translate/core"
	"github.com/muesli/reflow/wordwrap"
)

const (
	refreshInterval = 250 * time.Millisecond
	defaultWidth    = 80
	defaultHeight   = 24
)

type tickMsg time.Time

type connectedMsg struct{ err error }

type model struct {
	session   *translation.Session
	selection translation.LanguageSelection

	input   textinput.Model
	state   translation.State
	speaker translation.Speaker
	// started is set once a session was requested on the current connection.
	started bool

	width  int
	height int
}

func newModel(session *translation.Session, selection translation.LanguageSelection) model {
	input := textinput.New()
	input.Placeholder = "Type to translate"
	input.Focus()
	input.Width = defaultWidth - 4

	return model{
		session:   session,
		selection: selection,
		input:     input,
		state:     session.Snapshot(),
		speaker:   translation.SpeakerA,
		width:     defaultWidth,
		height:    defaultHeight,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.connect(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) connect() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return connectedMsg{err: session.Connect(context.Background())}
	}
}

// command runs a session command off the update loop.
func (m model) command(f func(ctx context.Context, s *translation.Session)) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		f(context.Background(), session)
		return sessionUpdatedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		var cmd tea.Cmd
		m, cmd = m.refresh()
		return m, tea.Batch(cmd, tick())

	case connectedMsg, sessionUpdatedMsg, sessionErrorMsg:
		return m.refresh()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.session.Disconnect(context.Background())
		return m, tea.Quit

	case "tab":
		if m.session.Mode() == translation.ModeConversation {
			m.speaker = m.speaker.Other()
		}
		return m, nil

	case "ctrl+s":
		return m, m.command(func(ctx context.Context, s *translation.Session) { s.SwapLanguages(ctx) })

	case "ctrl+l":
		m.session.ClearMessages()
		return m.refresh()

	case "ctrl+r":
		return m, m.connect()

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		speaker := m.speaker
		return m, m.command(func(ctx context.Context, s *translation.Session) { s.SendText(ctx, text, speaker) })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh re-reads the session and requests a session whenever a fresh
// connection is authenticated.
func (m model) refresh() (model, tea.Cmd) {
	m.state = m.session.Snapshot()

	if !m.state.IsConnected() {
		m.started = false
		return m, nil
	}
	if m.started || m.state.SessionPhase != translation.Idle {
		return m, nil
	}

	m.started = true
	selection := m.selection
	return m, m.command(func(ctx context.Context, s *translation.Session) { s.StartSession(ctx, selection) })
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("ema-translate · %s", m.session.Mode())))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.status()))
	b.WriteString("\n\n")

	lines := m.messageLines()
	if limit := m.height - 7; limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.state.Error != nil {
		b.WriteString(errorStyle.Render(m.state.Error.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.session.Mode() == translation.ModeConversation {
		b.WriteString(speakerStyle.Render(fmt.Sprintf("[%s] ", m.speaker)))
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · tab speaker · ctrl+s swap · ctrl+l clear · ctrl+r reconnect · esc quit"))

	return b.String()
}

func (m model) status() string {
	state := m.state
	parts := []string{state.ConnectionPhase.String()}
	if state.ConnectionPhase == translation.Connected && !state.Authenticated {
		parts[0] = "authenticating"
	}
	parts = append(parts, state.SessionPhase.String())

	if !state.Languages.IsZero() {
		parts = append(parts, fmt.Sprintf("%s %s ⇄ %s %s",
			state.Languages.A.Flag, state.Languages.A, state.Languages.B.Flag, state.Languages.B))
	}
	if m.session.Mode() == translation.ModeConversation {
		parts = append(parts, fmt.Sprintf("turn %d, %s speaks", state.TurnCount, state.CurrentSpeaker))
	}
	if state.IsProcessing {
		parts = append(parts, "processing…")
	}
	return strings.Join(parts, " · ")
}

func (m model) messageLines() []string {
	width := max(m.width-4, 20)

	var lines []string
	for _, message := range m.state.Messages {
		text := message.Text
		if message.Flag != "" {
			text = message.Flag + " " + text
		}
		if message.HasAudio() {
			text += " 🔊"
			if d := message.AudioEncoding.Duration(len(message.Audio)); d > 0 {
				text += fmt.Sprintf(" %.1fs", d.Seconds())
			}
		}
		text = wordwrap.String(text, width)

		switch {
		case message.Partial:
			text = partialStyle.Render(text + "…")
		case message.Kind == translation.Translated:
			text = translatedStyle.Render("→ " + text)
		default:
			text = originalStyle.Render(text)
		}

		if m.session.Mode() == translation.ModeConversation && message.Kind == translation.Original {
			text = speakerStyle.Render(fmt.Sprintf("[%s] ", message.Speaker)) + text
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines
}
