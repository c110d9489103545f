package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#10B981")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	PositiveValue = lipgloss.NewStyle().Foreground(ColorSecondary)
	WarningValue  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	NegativeValue = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedValue    = lipgloss.NewStyle().Foreground(ColorMuted)
)

// DecisionStyle colours a safety verdict: allowed, warned or blocked.
func DecisionStyle(decision string) lipgloss.Style {
	switch decision {
	case "allowed":
		return PositiveValue
	case "warned":
		return WarningValue
	default:
		return NegativeValue
	}
}

// BandStyle colours an impermanent loss band: low, moderate or severe.
func BandStyle(band string) lipgloss.Style {
	switch band {
	case "low":
		return PositiveValue
	case "moderate":
		return WarningValue
	default:
		return NegativeValue
	}
}
