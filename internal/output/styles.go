package output

import "github.com/charmbracelet/lipgloss"

// Palette shared by the printer and the wizard TUI.
const (
	ColorPrimary = "#7C3AED"
	ColorSuccess = "#10B981"
	ColorWarning = "#F59E0B"
	ColorError   = "#EF4444"
	ColorInfo    = "#3B82F6"
	ColorMuted   = "#6B7280"
)

var (
	// TitleStyle is used for headers and box titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimary))
	// SuccessStyle marks approvals and successful operations.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true)
	// WarningStyle marks pending feedback and warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Bold(true)
	// ErrorStyle marks failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Bold(true)
	// InfoStyle is used for neutral notices.
	InfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo))
	// MutedStyle is used for locked steps and secondary text.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
	// CurrentStyle highlights the current step.
	CurrentStyle = lipgloss.NewStyle().Bold(true)
	// BoxStyle frames step content.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorPrimary)).
			Padding(0, 1)
)
