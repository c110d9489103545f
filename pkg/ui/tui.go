package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/amm-quoter/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // splash screen
	PhaseWaiting   Phase = "waiting"   // subscribed, no block yet
	PhaseDashboard Phase = "dashboard" // main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 1500 * time.Millisecond

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	probes   *components.ProbesComponent
	position *components.PositionComponent
	status   *components.StatusComponent
	stats    *components.StatsComponent

	keys   KeyMap
	help   help.Model
	filter probeFilter
	rows   []components.ProbeRow // latest block, unfiltered
	title  string

	phase        Phase
	welcomeStart time.Time
	waitingSince time.Time

	quitting     bool
	paused       bool
	width        int
	height       int
	currentBlock uint64
	gasGwei      string
	summary      string
	lastUpdate   time.Time
	errors       []ErrorEntry // last 3
	logs         []string     // last 5
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		probes:       components.NewProbesComponent(),
		position:     components.NewPositionComponent(),
		status:       components.NewStatusComponent(),
		stats:        components.NewStatsComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		errors:       make([]ErrorEntry, 0, 3),
		logs:         make([]string, 0, 5),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case m.phase == PhaseWelcome:
			m.enterWaiting()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Direction):
			m.filter = m.filter.next()
			m.refreshProbes()
		case key.Matches(msg, m.keys.Clear):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterWaiting()
		}
		return m, tickCmd()

	case BlockUpdateMsg:
		if msg.Update == nil {
			return m, nil
		}
		u := msg.Update

		rows := probeRows(u)

		st := m.stats.Stats()
		st.BlocksProcessed++
		st.BlocksSkipped += int64(u.Skipped)
		st.BlockedProbes = blockedProbes(rows)
		st.LastElapsedMs = u.Elapsed.Milliseconds()
		m.stats.Update(st)

		if m.paused {
			return m, nil
		}

		m.currentBlock = u.Block.Number
		m.summary = poolSummary(u.Overview)
		m.rows, m.title = rows, probeTitle(u.Overview.Pool)
		m.refreshProbes()
		m.position.Update(positionView(u))
		if u.Overview.Gas != nil {
			m.gasGwei = u.Overview.Gas.GasPrice.Gwei().StringFixed(2)
		}
		m.lastUpdate = time.Now()
		if m.phase != PhaseWelcome {
			m.phase = PhaseDashboard
		}

	case ConnectionStatusMsg:
		m.status.Update(statusView(msg.Status))
		st := m.stats.Stats()
		st.Reconnects = msg.Status.Reconnects
		m.stats.Update(st)

	case ErrorMsg:
		st := m.stats.Stats()
		st.Errors++
		m.stats.Update(st)

		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

func (m *Model) refreshProbes() {
	title := m.title
	if m.filter != showBoth {
		title += " " + m.filter.String()
	}
	m.probes.Update(title, m.filter.apply(m.rows))
}

func (m *Model) enterWaiting() {
	m.waitingSince = time.Now()
	if m.currentBlock > 0 {
		m.phase = PhaseDashboard
		return
	}
	m.phase = PhaseWaiting
}

// addLog appends a log line, keeping the last 5.
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseWaiting:
		return m.renderWaitingScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" AMM Quoter "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(MutedValue.Render(m.summary))
	b.WriteString("\n\n")

	main := m.probes.View()
	if pos := m.position.View(); pos != "" {
		if m.width > 120 {
			left := BoxStyle.Width(m.width*2/3 - 2).Render(main)
			right := BoxStyle.Width(m.width/3 - 2).Render(pos)
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
		} else {
			b.WriteString(BoxStyle.Render(main))
			b.WriteString("\n")
			b.WriteString(BoxStyle.Render(pos))
		}
	} else {
		b.WriteString(BoxStyle.Render(main))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", e.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(WarningValue.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n")
	sb.WriteString(titleStyle.Render("      x · y = k"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("      A M M   Q U O T E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(lipgloss.NewStyle().Foreground(ColorSecondary).Render("      Subscribing to new heads" + dots))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("      Press any key to skip"))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderWaitingScreen() string {
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	spinners := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(m.waitingSince).Milliseconds()/200) % len(spinners)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(TitleStyle.Render(" AMM Quoter "))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s %s\n\n", WarningValue.Render(spinners[idx]), m.status.View()))
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Waiting for the first block... (%s)",
		time.Since(m.waitingSince).Round(time.Second))))
	sb.WriteString("\n")
	for _, l := range m.logs {
		sb.WriteString(mutedStyle.Render("  " + l))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{
		fmt.Sprintf("Block: #%d", m.currentBlock),
		m.status.View(),
	}
	if m.gasGwei != "" {
		parts = append(parts, fmt.Sprintf("Gas: %s gwei", m.gasGwei))
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", time.Since(m.lastUpdate).Round(time.Second))))
	}
	return strings.Join(parts, "  │  ")
}

// Run runs the dashboard until the user quits or ctx ends. The returned
// program accepts messages via Send as soon as Run is called.
func Run(ctx context.Context) (*tea.Program, <-chan error) {
	p := tea.NewProgram(New(), tea.WithAltScreen(), tea.WithContext(ctx))
	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()
	return p, done
}
