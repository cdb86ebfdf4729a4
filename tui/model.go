package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keycoach/music"
	"keycoach/practice"
	"keycoach/theme"
	"keycoach/widgets"
)

type Model struct {
	Engine *practice.Engine
	Bridge *Bridge
	Theme  *theme.Theme

	keys     KeyMap
	help     help.Model
	octave   int
	quitting bool
}

// EngineMsg signals that engine state changed.
type EngineMsg struct{}

// BridgeMsg signals that the bridge snapshot changed.
type BridgeMsg struct{}

func NewModel(engine *practice.Engine, bridge *Bridge, th *theme.Theme) Model {
	return Model{
		Engine: engine,
		Bridge: bridge,
		Theme:  th,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		octave: 4,
	}
}

func ListenForEngine(engine *practice.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.UpdateChan
		return EngineMsg{}
	}
}

func ListenForBridge(bridge *Bridge) tea.Cmd {
	return func() tea.Msg {
		<-bridge.Updates
		return BridgeMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForEngine(m.Engine),
		ListenForBridge(m.Bridge),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Engine.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Start):
			m.Engine.Start()

		case key.Matches(msg, m.keys.Pause):
			if m.Engine.State() == practice.Paused {
				m.Engine.Resume()
			} else {
				m.Engine.Pause()
			}

		case key.Matches(msg, m.keys.Skip):
			m.Engine.Skip()

		case key.Matches(msg, m.keys.Stop):
			m.Engine.Stop()

		case key.Matches(msg, m.keys.OctaveDown):
			if m.octave > 3 {
				m.octave--
			}

		case key.Matches(msg, m.keys.OctaveUp):
			if m.octave < 5 {
				m.octave++
			}

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		default:
			if id, ok := noteForKey(msg.String(), m.octave); ok {
				m.Engine.HandleNoteOn(id)
			}
		}

	case EngineMsg:
		return m, ListenForEngine(m.Engine)

	case BridgeMsg:
		return m, ListenForBridge(m.Bridge)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.Bridge.Snapshot()
	state := m.Engine.State()

	device := "no keyboard"
	if v.Device != "" {
		device = v.Device
	}
	header := m.Theme.Title.Render(
		fmt.Sprintf("keycoach  %s  octave:%d  [%s]", state, m.octave, device))

	challenge := ""
	if v.Challenge != "" {
		challenge = m.Theme.Challenge.Render(v.Challenge)
	} else if state == practice.Idle {
		challenge = m.Theme.Help.Render("press enter to start")
	}

	played := make(map[string]bool)
	for _, id := range m.Engine.PlayedIDs() {
		played[id] = true
	}
	keyboard := widgets.RenderKeyboard(m.Theme, v.Highlighted, played)

	feedback := ""
	if v.Feedback != "" {
		feedback = m.feedbackStyle(v.Severity).Render(v.Feedback)
	}

	stats := m.Theme.StatsLine.Render(fmt.Sprintf(
		"correct:%d  wrong:%d  streak:%d  best:%d",
		v.Stats.Correct, v.Stats.Incorrect, v.Stats.CurrentStreak, v.Stats.BestStreak))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(challenge)
	out.WriteString("\n\n")
	out.WriteString(keyboard)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderKeyLegend(m.Theme))
	out.WriteString("\n\n")
	out.WriteString(feedback)
	out.WriteString("\n")
	out.WriteString(stats)
	out.WriteString("\n\n")
	out.WriteString(m.noteRowHint())
	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))
	return out.String()
}

func (m Model) feedbackStyle(sev practice.Severity) lipgloss.Style {
	switch sev {
	case practice.Success:
		return m.Theme.Success
	case practice.Partial:
		return m.Theme.Partial
	case practice.Failure:
		return m.Theme.Failure
	}
	return m.Theme.Info
}

// noteRowHint shows which typed keys map to which notes at the current
// octave.
func (m Model) noteRowHint() string {
	base := music.Note{Class: music.C, Octave: m.octave}
	return m.Theme.Help.Render(
		fmt.Sprintf("notes: a..; whites from %s, w/e/t/y/u sharps", base.ID()))
}
