package status

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Monitor is a read-only bubbletea view over a Fields block: transport
// state, step position, CPU load, and per-track activity. It carries
// none of the pattern-editing state the teacher's Model had, since
// editing the pattern data is out of this module's scope.
type Monitor struct {
	fields *Fields
	width  int
	height int
}

// NewMonitor returns a Monitor polling fields.
func NewMonitor(fields *Fields) Monitor {
	return Monitor{fields: fields, width: 80, height: 20}
}

// Init implements tea.Model.
func (m Monitor) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16_666_666*time.Nanosecond, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model.
func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

// View implements tea.Model.
func (m Monitor) View() string {
	snap := m.fields.Snapshot()

	var b strings.Builder
	b.WriteString(headerStyle.Render("groovebox — status monitor"))
	b.WriteString("\n\n")

	transportState := idleStyle.Render("stopped")
	if snap.Playing {
		transportState = activeStyle.Render("playing")
	}
	fmt.Fprintf(&b, "%s %s    %s %.1f    %s %d\n",
		labelStyle.Render("transport:"), transportState,
		labelStyle.Render("bpm:"), snap.BPM,
		labelStyle.Render("step:"), snap.GlobalStep)

	loadStyle := activeStyle
	if snap.CPULoad > 0.85 {
		loadStyle = warnStyle
	}
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("cpu load:"), loadStyle.Render(fmt.Sprintf("%.0f%%", snap.CPULoad*100)))

	b.WriteString(labelStyle.Render("tracks: "))
	for i, active := range snap.TrackActive {
		style := idleStyle
		if active {
			style = activeStyle
		}
		fmt.Fprintf(&b, "%s", style.Render(fmt.Sprintf("[%d]", i)))
	}
	b.WriteString("\n\nq to quit\n")
	return b.String()
}
