package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is the head subscription's state.
type ConnectionStatus struct {
	State      string
	Transport  string // ws or http
	LastBlock  uint64
	Reconnects int
}

// StatusComponent renders connection status.
type StatusComponent struct {
	status ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{status: ConnectionStatus{State: "disconnected"}}
}

// Update replaces the status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.status = status
}

// View renders the status component.
func (s *StatusComponent) View() string {
	var style lipgloss.Style
	icon := "○"
	switch s.status.State {
	case "connected":
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		icon = "●"
	case "connecting", "reconnecting":
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
		icon = "◐"
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	}

	parts := []string{style.Render(icon + " " + s.status.State)}
	if s.status.Transport != "" {
		parts = append(parts, s.status.Transport)
	}
	if s.status.Reconnects > 0 {
		parts = append(parts, fmt.Sprintf("%d reconnects", s.status.Reconnects))
	}
	return strings.Join(parts, " · ")
}
