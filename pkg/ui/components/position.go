package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Position is an LP position, pre-formatted by the caller.
type Position struct {
	Owner       string
	LPBalance   string
	SharePct    string
	UnderlyingA string
	UnderlyingB string
	Empty       bool
}

// PositionComponent renders the tracked LP position.
type PositionComponent struct {
	pos *Position
}

// NewPositionComponent creates a new position component.
func NewPositionComponent() *PositionComponent {
	return &PositionComponent{}
}

// Update sets the position; nil hides the panel.
func (p *PositionComponent) Update(pos *Position) {
	p.pos = pos
}

// View renders the position component.
func (p *PositionComponent) View() string {
	if p.pos == nil {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("POSITION"))
	b.WriteString(dimStyle.Render(" " + p.pos.Owner))
	b.WriteString("\n\n")

	if p.pos.Empty {
		b.WriteString(dimStyle.Render("  No LP tokens held"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  LP balance:  %s\n", p.pos.LPBalance))
	b.WriteString(fmt.Sprintf("  Pool share:  %s%%\n", p.pos.SharePct))
	b.WriteString(fmt.Sprintf("  Underlying:  %s\n", p.pos.UnderlyingA))
	b.WriteString(fmt.Sprintf("               %s\n", p.pos.UnderlyingB))
	return b.String()
}
