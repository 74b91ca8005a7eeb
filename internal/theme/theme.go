package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the banner and stage headers.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StepStyle prefixes progress lines.
var StepStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// SuccessStyle marks completed steps.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// WarnStyle marks skipped or partial results.
var WarnStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ErrorStyle marks failures.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// HintStyle is used for remediation hints and secondary text.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// PanelStyle wraps the summary box printed at the end of a run.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CategoryStyle returns a color-coded style for a newsletter category.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch category {
	case "Herramienta":
		return base.Foreground(ColorMagenta)
	case "Tutorial":
		return base.Foreground(ColorGreen)
	case "Noticia":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
