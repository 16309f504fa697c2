package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/config"
	"github.com/hookline/beforesend/event"
	"github.com/hookline/beforesend/samples"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	outcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	droppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const defaultEvent = `{
  "exception": {
    "values": [
      {"type": "ValueError", "value": "Original error"}
    ]
  }
}`

type playModel struct {
	editor  textarea.Model
	eng     beforesend.Engine
	eventIn string
	result  string
	failed  bool
	dropped bool
	ran     bool
}

type ranMsg struct {
	result  string
	failed  bool
	dropped bool
}

func newPlayModel(eng beforesend.Engine, source, eventIn string) *playModel {
	ed := textarea.New()
	ed.SetWidth(78)
	ed.SetHeight(14)
	ed.SetValue(source)
	ed.Focus()
	return &playModel{editor: ed, eng: eng, eventIn: eventIn}
}

func (m *playModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *playModel) run() tea.Msg {
	ev, err := event.Decode([]byte(m.eventIn))
	if err != nil {
		return ranMsg{result: "event: " + err.Error(), failed: true}
	}

	out := m.eng.Transform(context.Background(), ev, m.editor.Value())
	switch out.Kind {
	case beforesend.OutcomeTransformed:
		data, err := event.Encode(out.Event)
		if err != nil {
			return ranMsg{result: err.Error(), failed: true}
		}
		return ranMsg{result: string(data)}
	case beforesend.OutcomeDropped:
		return ranMsg{result: "event dropped", dropped: true}
	case beforesend.OutcomeLoadFailure:
		return ranMsg{result: "load failure: " + out.Diag.Message, failed: true}
	default:
		msg := "invocation failure: " + out.Message
		if out.Trace != "" {
			msg += "\n" + out.Trace
		}
		return ranMsg{result: msg, failed: true}
	}
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			return m, m.run
		}

	case ranMsg:
		m.result = msg.result
		m.failed = msg.failed
		m.dropped = msg.dropped
		m.ran = true
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *playModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("beforeSend playground"))
	b.WriteString(" ")
	b.WriteString(helpStyle.Render("engine: " + m.eng.Name()))
	b.WriteString("\n\n")
	b.WriteString(m.editor.View())
	b.WriteString("\n\n")

	if m.ran {
		switch {
		case m.failed:
			b.WriteString(errorStyle.Render(m.result))
		case m.dropped:
			b.WriteString(droppedStyle.Render(m.result))
		default:
			b.WriteString(outcomeStyle.Render(m.result))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(helpStyle.Render("ctrl+r run • ctrl+c quit"))
	return b.String()
}

// runInteractive opens the TUI, seeding the editor from -routine and
// the input event from -event when given.
func runInteractive(cfg config.Config, routineFile, eventFile string) error {
	eng, ok := beforesend.Lookup(cfg.Engine.Default)
	if !ok {
		return fmt.Errorf("unknown default runtime %q", cfg.Engine.Default)
	}

	source := ""
	if routineFile != "" {
		data, err := os.ReadFile(routineFile)
		if err != nil {
			return err
		}
		source = string(data)
	} else if s, ok := samples.NewLibrary("", nil).Get("unity-metadata"); ok {
		source = s.Source
	}

	eventIn := defaultEvent
	if eventFile != "" {
		data, err := os.ReadFile(eventFile)
		if err != nil {
			return err
		}
		eventIn = string(data)
	}

	p := tea.NewProgram(newPlayModel(eng, source, eventIn), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
