package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/codec"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	traceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectTrace modelState = iota
	stateInputWindow
	stateShowStats
)

type interactiveModel struct {
	err      error
	file     *spiceraw.File
	filename string
	names    []string
	stats    string
	winInput textinput.Model
	stpInput textinput.Model
	selected int
	focusIdx int
	state    modelState
}

func newInteractiveModel(filename string) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		state:    stateSelectTrace,
	}
}

type loadedMsg struct {
	err   error
	file  *spiceraw.File
	names []string
}

type statsMsg struct {
	err  error
	body string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *interactiveModel) loadFile() tea.Msg {
	f, err := codec.Decode(m.filename, nil)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{file: f, names: f.TraceNames()}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputWindow {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectTrace && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectTrace && m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectTrace:
				if len(m.names) == 0 {
					return m, nil
				}
				m.prepareInputs()
				m.state = stateInputWindow

			case stateInputWindow:
				return m, m.computeStats

			case stateShowStats:
				m.state = stateSelectTrace
				m.stats = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputWindow {
				if m.focusIdx == 0 {
					m.winInput.Blur()
					m.stpInput.Focus()
					m.focusIdx = 1
				} else {
					m.stpInput.Blur()
					m.winInput.Focus()
					m.focusIdx = 0
				}
			}

		case "esc":
			switch m.state {
			case stateInputWindow:
				m.state = stateSelectTrace
			case stateShowStats:
				m.state = stateSelectTrace
				m.stats = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.file = msg.file
		m.names = msg.names

	case statsMsg:
		m.stats = msg.body
		m.err = msg.err
		m.state = stateShowStats
	}

	if m.state == stateInputWindow {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.winInput, cmd = m.winInput.Update(msg)
		cmds = append(cmds, cmd)
		m.stpInput, cmd = m.stpInput.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	m.winInput = textinput.New()
	m.winInput.Prompt = "window: "
	m.winInput.Placeholder = "start:end (blank = all)"
	m.winInput.Width = 30
	m.winInput.Focus()

	m.stpInput = textinput.New()
	m.stpInput.Prompt = "step:   "
	m.stpInput.Placeholder = "0"
	m.stpInput.Width = 30
	m.focusIdx = 0
}

func (m *interactiveModel) computeStats() tea.Msg {
	name := m.names[m.selected]
	step := 0
	if v := strings.TrimSpace(m.stpInput.Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return statsMsg{err: fmt.Errorf("step %q is not a number", v)}
		}
		step = n
	}
	w, err := wave(m.file, name, step)
	if err != nil {
		return statsMsg{err: err}
	}
	start, end := 0, len(w)
	if v := strings.TrimSpace(m.winInput.Value()); v != "" {
		start, end, err = parseWindow(v, len(w))
		if err != nil {
			return statsMsg{err: err}
		}
	}
	w = w[start:end]

	var b strings.Builder
	fmt.Fprintf(&b, "window [%d:%d), step %d, %d points\n\n", start, end, step, len(w))
	if len(w) == 0 {
		b.WriteString("empty window")
		return statsMsg{body: b.String()}
	}
	mean, std := stat.MeanStdDev(w, nil)
	fmt.Fprintf(&b, "Min:    %g\n", floats.Min(w))
	fmt.Fprintf(&b, "Max:    %g\n", floats.Max(w))
	fmt.Fprintf(&b, "Mean:   %g\n", mean)
	fmt.Fprintf(&b, "StdDev: %g\n", std)
	fmt.Fprintf(&b, "\nPreview: %v", w[:min(previewLen, len(w))])
	return statsMsg{body: b.String()}
}

// parseWindow reads "start:end"; either side may be blank.
func parseWindow(s string, n int) (int, int, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("window %q is not start:end", s)
	}
	start, end := 0, n
	var err error
	if v := strings.TrimSpace(lo); v != "" {
		if start, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("window start %q is not a number", v)
		}
	}
	if v := strings.TrimSpace(hi); v != "" {
		if end, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("window end %q is not a number", v)
		}
	}
	if start < 0 || end > n || start > end {
		return 0, 0, fmt.Errorf("window [%d:%d) out of range (run has %d points)", start, end, n)
	}
	return start, end, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowStats {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.file == nil {
		return "Loading waveform..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Raw Viewer"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectTrace:
		fmt.Fprintf(&b, "%s, %d points", m.file.Plotname(), m.file.Points())
		if n := m.file.StepCount(); n > 1 {
			fmt.Fprintf(&b, ", %d steps", n)
		}
		b.WriteString("\n\nSelect a trace:\n\n")
		for i, name := range m.names {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatTrace(name)))
			} else {
				b.WriteString(cursor + m.formatTrace(name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateInputWindow:
		fmt.Fprintf(&b, "Inspecting %s\n\n", traceStyle.Render(m.names[m.selected]))
		b.WriteString(m.winInput.View())
		b.WriteString("\n")
		b.WriteString(m.stpInput.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("tab next field • enter compute • esc back"))

	case stateShowStats:
		fmt.Fprintf(&b, "Statistics for %s:\n\n", traceStyle.Render(m.names[m.selected]))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.stats))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatTrace(name string) string {
	if ax := m.file.Axis(); ax != nil && strings.EqualFold(ax.Name(), name) {
		return traceStyle.Render(name) + " [" + typeStyle.Render(ax.Type()) + "] (axis)"
	}
	t, err := m.file.Trace(name)
	if err != nil {
		return traceStyle.Render(name)
	}
	return traceStyle.Render(name) + " [" + typeStyle.Render(t.Type()) + "] " + t.Kind().String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
