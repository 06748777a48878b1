package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-composer/compat"
	"github.com/wippyai/wasm-composer/descriptor"
	"github.com/wippyai/wasm-composer/watcher"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	compStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	ghostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	ifaceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type paletteState int

const (
	stateComponents paletteState = iota
	stateInterfaces
	stateMatches
)

type paletteModel struct {
	w       *watcher.Watcher
	entries []watcher.Entry
	stats   watcher.Stats

	filter    textinput.Model
	filtering bool

	selected  int
	ifaceIdx  int
	matches   []compat.Match
	matchFor  string
	state     paletteState
}

type refreshMsg struct{}

func newPaletteModel(w *watcher.Watcher) *paletteModel {
	filter := textinput.New()
	filter.Placeholder = "filter components"
	filter.Prompt = "/ "
	filter.Width = 40

	return &paletteModel{
		w:      w,
		filter: filter,
		state:  stateComponents,
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *paletteModel) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return refreshMsg{} }, refreshTick())
}

func (m *paletteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.entries = m.w.View()
		m.stats = m.w.Stats()
		if m.selected >= len(m.visible()) {
			m.selected = 0
		}
		return m, refreshTick()

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.selected = 0
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "/":
			if m.state == stateComponents {
				m.filtering = true
				m.filter.Focus()
			}

		case "up", "k":
			switch m.state {
			case stateComponents:
				if m.selected > 0 {
					m.selected--
				}
			case stateInterfaces:
				if m.ifaceIdx > 0 {
					m.ifaceIdx--
				}
			}

		case "down", "j":
			switch m.state {
			case stateComponents:
				if m.selected < len(m.visible())-1 {
					m.selected++
				}
			case stateInterfaces:
				if entry, ok := m.current(); ok && m.ifaceIdx < len(entry.Component.Interfaces)-1 {
					m.ifaceIdx++
				}
			}

		case "enter":
			switch m.state {
			case stateComponents:
				if _, ok := m.current(); ok {
					m.state = stateInterfaces
					m.ifaceIdx = 0
				}
			case stateInterfaces:
				m.computeMatches()
				m.state = stateMatches
			}

		case "esc":
			switch m.state {
			case stateInterfaces:
				m.state = stateComponents
			case stateMatches:
				m.state = stateInterfaces
				m.matches = nil
			}
		}
	}

	return m, nil
}

// visible applies the palette filter to the registry view.
func (m *paletteModel) visible() []watcher.Entry {
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if needle == "" {
		return m.entries
	}
	var out []watcher.Entry
	for _, e := range m.entries {
		if strings.Contains(strings.ToLower(e.Component.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}

func (m *paletteModel) current() (watcher.Entry, bool) {
	vis := m.visible()
	if m.selected < 0 || m.selected >= len(vis) {
		return watcher.Entry{}, false
	}
	return vis[m.selected], true
}

// computeMatches ranks every opposite-direction interface in the registry
// against the selected interface.
func (m *paletteModel) computeMatches() {
	entry, ok := m.current()
	if !ok || m.ifaceIdx >= len(entry.Component.Interfaces) {
		m.matches = nil
		return
	}
	source := entry.Component.Interfaces[m.ifaceIdx]
	m.matchFor = source.Name

	var candidates []descriptor.Interface
	for _, other := range m.entries {
		if other.Component.Name == entry.Component.Name {
			continue
		}
		for _, iface := range other.Component.Interfaces {
			if compat.CanConnect(source, iface) {
				candidates = append(candidates, iface)
			}
		}
	}
	m.matches = compat.FindCompatible(source, candidates)
}

func (m *paletteModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Component Palette"))
	b.WriteString(fmt.Sprintf("  %d known, %d missing\n\n", m.stats.Known, m.stats.Missing))

	switch m.state {
	case stateComponents:
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		vis := m.visible()
		if len(vis) == 0 {
			b.WriteString(helpStyle.Render("No components yet; waiting for the next scan."))
			b.WriteString("\n")
		}
		for i, e := range vis {
			line := m.formatEntry(e)
			if i == m.selected && !m.filtering {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter interfaces • / filter • q quit"))

	case stateInterfaces:
		entry, ok := m.current()
		if !ok {
			b.WriteString(errorStyle.Render("component disappeared"))
			break
		}
		b.WriteString(compStyle.Render(entry.Component.Name))
		b.WriteString("  " + entry.Path + "\n\n")
		for i, iface := range entry.Component.Interfaces {
			line := fmt.Sprintf("[%s] %s (%d functions)", iface.Direction, iface.Name, len(iface.Functions))
			if i == m.ifaceIdx {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + ifaceStyle.Render(line))
			}
			b.WriteString("\n")
			for _, fn := range iface.Functions {
				b.WriteString("      " + formatFunction(fn) + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter matches • esc back"))

	case stateMatches:
		b.WriteString(fmt.Sprintf("Connections for %s\n\n", ifaceStyle.Render(m.matchFor)))
		if len(m.matches) == 0 {
			b.WriteString(helpStyle.Render("No compatible interfaces in the registry."))
			b.WriteString("\n")
		}
		for _, match := range m.matches {
			marker := "  "
			if match.Result.Valid {
				marker = "* "
			}
			b.WriteString(marker)
			b.WriteString(scoreStyle.Render(fmt.Sprintf("%3d", match.Result.Score)))
			b.WriteString("  " + match.Interface.Name)
			b.WriteString(fmt.Sprintf("  (%d/%d functions)\n",
				match.Result.MatchedFunctions, match.Result.TotalFunctions))
			for _, issue := range match.Result.Issues {
				b.WriteString("       " + errorStyle.Render(issue) + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func (m *paletteModel) formatEntry(e watcher.Entry) string {
	label := fmt.Sprintf("%s (%d interfaces)", e.Component.Name, len(e.Component.Interfaces))
	if e.Status == watcher.StatusMissing {
		return ghostStyle.Render(label + " (missing)")
	}
	return compStyle.Render(label)
}

func runInteractive(w *watcher.Watcher) error {
	if !isTerminal() {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	defer w.Stop()

	p := tea.NewProgram(newPaletteModel(w), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
