package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Stats are the watcher's running counters.
type Stats struct {
	BlocksProcessed int64
	BlocksSkipped   int64 // superseded by a newer head before being processed
	BlockedProbes   int   // in the latest block
	Reconnects      int
	Errors          int64
	LastElapsedMs   int64
}

// StatsComponent renders the counters on one line.
type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

func (s *StatsComponent) Stats() Stats {
	return s.stats
}

func (s *StatsComponent) View() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	alert := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	counter := func(n int64, alarming bool) string {
		if alarming && n > 0 {
			return alert.Render(fmt.Sprint(n))
		}
		return value.Render(fmt.Sprint(n))
	}

	fields := []string{
		"Blocks: " + counter(s.stats.BlocksProcessed, false),
		"Superseded: " + counter(s.stats.BlocksSkipped, false),
		"Recompute: " + value.Render(fmt.Sprintf("%dms", s.stats.LastElapsedMs)),
		"Blocked probes: " + counter(int64(s.stats.BlockedProbes), true),
		"Reconnects: " + counter(int64(s.stats.Reconnects), true),
		"Errors: " + counter(s.stats.Errors, true),
	}
	return label.Render("STATS") + "\n" + strings.Join(fields, "  │  ")
}
