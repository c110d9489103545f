// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProbeRow is one probe quote, pre-formatted by the caller.
type ProbeRow struct {
	Direction string // a-to-b or b-to-a
	Size      string // "10 TKA"
	AmountOut string
	MinOut    string
	ImpactPct float64
	Tier      string
	Decision  string // allowed, warned, blocked
	Err       string
}

// ProbesComponent renders the probe quote table.
type ProbesComponent struct {
	rows  []ProbeRow
	title string
}

// NewProbesComponent creates a new probes component.
func NewProbesComponent() *ProbesComponent {
	return &ProbesComponent{title: "QUOTES"}
}

// Update replaces the rows.
func (p *ProbesComponent) Update(title string, rows []ProbeRow) {
	p.title = title
	p.rows = rows
}

// View renders the probes component.
func (p *ProbesComponent) View() string {
	if len(p.rows) == 0 {
		return "Waiting for the first block..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(p.title))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %-14s  %22s  %22s  %9s  %s\n", "In", "Out", "Min out", "Impact", "Verdict"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 84)) + "\n")

	for _, row := range p.rows {
		if row.Err != "" {
			b.WriteString(fmt.Sprintf("  %-14s  %s\n", row.Size, badStyle.Render(row.Err)))
			continue
		}

		style := okStyle
		switch row.Decision {
		case "warned":
			style = warnStyle
		case "blocked":
			style = badStyle
		}

		b.WriteString(fmt.Sprintf("  %-14s  %22s  %22s  %s  %s\n",
			row.Size,
			row.AmountOut,
			row.MinOut,
			style.Render(fmt.Sprintf("%8.3f%%", row.ImpactPct)),
			style.Render(row.Decision+" ("+row.Tier+")"),
		))
	}

	return b.String()
}
