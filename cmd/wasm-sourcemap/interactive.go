package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-sourcemap/sourcemap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	locStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateList modelState = iota
	stateFilter
	stateDetail
)

// contextLines is how many source lines the detail view shows on each side
// of the mapped line.
const contextLines = 5

type interactiveModel struct {
	err      error
	sm       *sourcemap.SourceMap
	filename string
	mappings []sourcemap.Mapping
	visible  []int // indices into mappings that pass the filter
	sources  map[int64][]string
	filter   textinput.Model
	selected int
	top      int
	height   int
	loaded   bool
	state    modelState
}

func newInteractiveModel(filename string, sm *sourcemap.SourceMap) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "source path or 0xaddress"
	ti.Width = 40

	return &interactiveModel{
		sm:       sm,
		filename: filename,
		sources:  make(map[int64][]string),
		filter:   ti,
		height:   20,
		state:    stateList,
	}
}

type loadedMsg struct {
	err      error
	mappings []sourcemap.Mapping
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadMappings
}

func (m *interactiveModel) loadMappings() tea.Msg {
	mappings, err := sourcemap.DecodeMappings(m.sm.Mappings)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{mappings: mappings}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, blank, status, help
		m.height = max(msg.Height-5, 1)
		m.scroll()

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mappings = msg.mappings
		m.applyFilter()

	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
				m.scroll()
			}
		case "down", "j":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
				m.scroll()
			}
		case "pgup":
			if m.state == stateList {
				m.selected = max(m.selected-m.height, 0)
				m.scroll()
			}
		case "pgdown":
			if m.state == stateList && len(m.visible) > 0 {
				m.selected = min(m.selected+m.height, len(m.visible)-1)
				m.scroll()
			}
		case "/":
			if m.state == stateList {
				m.state = stateFilter
				return m, m.filter.Focus()
			}
		case "enter":
			switch m.state {
			case stateList:
				if len(m.visible) > 0 {
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateList
			}
		case "esc":
			if m.state == stateDetail {
				m.state = stateList
			}
		}
	}
	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		if msg.String() == "esc" {
			m.filter.SetValue("")
			m.applyFilter()
		}
		m.filter.Blur()
		m.state = stateList
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// applyFilter keeps mappings whose source path contains the filter text, or
// whose address starts with it when the text is a 0x prefix.
func (m *interactiveModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, mp := range m.mappings {
		if q == "" || m.matches(mp, q) {
			m.visible = append(m.visible, i)
		}
	}
	m.selected = 0
	m.top = 0
}

func (m *interactiveModel) matches(mp sourcemap.Mapping, q string) bool {
	if strings.HasPrefix(q, "0x") {
		return strings.HasPrefix(fmt.Sprintf("0x%x", mp.Address), q)
	}
	return strings.Contains(strings.ToLower(m.sourceName(mp.Source)), q)
}

func (m *interactiveModel) scroll() {
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}
}

func (m *interactiveModel) sourceName(idx int64) string {
	if idx < 0 || idx >= int64(len(m.sm.Sources)) {
		return "?"
	}
	return m.sm.Sources[idx]
}

// sourceLines returns the text of a source, preferring embedded content and
// falling back to the file system. Results are memoised; nil means
// unavailable.
func (m *interactiveModel) sourceLines(idx int64) []string {
	if lines, ok := m.sources[idx]; ok {
		return lines
	}

	var lines []string
	if idx >= 0 && idx < int64(len(m.sm.SourcesContent)) && m.sm.SourcesContent[idx] != nil {
		lines = strings.Split(*m.sm.SourcesContent[idx], "\n")
	} else if data, err := os.ReadFile(m.sourceName(idx)); err == nil {
		lines = strings.Split(string(data), "\n")
	}
	m.sources[idx] = lines
	return lines
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Decoding mappings..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Source Map"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateList, stateFilter:
		m.viewList(&b)
	case stateDetail:
		m.viewDetail(&b)
	}
	return b.String()
}

func (m *interactiveModel) viewList(b *strings.Builder) {
	if len(m.visible) == 0 {
		b.WriteString("No mappings match.\n")
	}
	end := min(m.top+m.height, len(m.visible))
	for i := m.top; i < end; i++ {
		mp := m.mappings[m.visible[i]]
		addr := fmt.Sprintf("0x%06x", mp.Address)
		loc := fmt.Sprintf("%s:%d:%d", m.sourceName(mp.Source), mp.Line, mp.Column)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + addr + "  " + loc))
		} else {
			b.WriteString("  " + addrStyle.Render(addr) + "  " + locStyle.Render(loc))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateFilter {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: apply • esc: clear"))
		return
	}
	status := fmt.Sprintf("%d/%d mappings", len(m.visible), len(m.mappings))
	if q := m.filter.Value(); q != "" {
		status += fmt.Sprintf(" matching %q", q)
	}
	b.WriteString(helpStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: navigate • enter: show source • /: filter • q: quit"))
}

func (m *interactiveModel) viewDetail(b *strings.Builder) {
	mp := m.mappings[m.visible[m.selected]]
	fmt.Fprintf(b, "%s  %s\n\n",
		addrStyle.Render(fmt.Sprintf("0x%06x", mp.Address)),
		locStyle.Render(fmt.Sprintf("%s:%d:%d", m.sourceName(mp.Source), mp.Line, mp.Column)))

	lines := m.sourceLines(mp.Source)
	if lines == nil {
		b.WriteString(errorStyle.Render("source not available"))
		b.WriteString("\n")
	} else {
		target := int(mp.Line) - 1
		for i := max(target-contextLines, 0); i <= min(target+contextLines, len(lines)-1); i++ {
			text := fmt.Sprintf("%5d  %s", i+1, lines[i])
			if i == target {
				b.WriteString(markStyle.Render(text))
				b.WriteString("\n")
				col := max(int(mp.Column)-1, 0)
				b.WriteString(strings.Repeat(" ", 7+col))
				b.WriteString(markStyle.Render("^"))
			} else {
				b.WriteString(text)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter/esc: back • q: quit"))
}

func runInteractive(filename string, sm *sourcemap.SourceMap) error {
	p := tea.NewProgram(newInteractiveModel(filename, sm), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
