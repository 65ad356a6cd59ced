package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Palette, using AdaptiveColor for light and dark terminals.
var (
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	InfoColor    = lipgloss.AdaptiveColor{Light: "#17A2B8", Dark: "#4DD0E1"}

	LocalColor    = lipgloss.AdaptiveColor{Light: "#495057", Dark: "#E9ECEF"}
	LinkedColor   = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"}
	OverrideColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	SystemColor   = lipgloss.AdaptiveColor{Light: "#6F42C1", Dark: "#B392F0"}
	LeftoverColor = lipgloss.AdaptiveColor{Light: "#FD7E14", Dark: "#FFA94D"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)
)

var stateStyles = map[State]lipgloss.Style{
	StateLocal:    lipgloss.NewStyle().Foreground(LocalColor),
	StateLinked:   lipgloss.NewStyle().Foreground(LinkedColor),
	StateOverride: lipgloss.NewStyle().Foreground(OverrideColor).Bold(true),
	StateSystem:   lipgloss.NewStyle().Foreground(SystemColor),
	StateTemplate: lipgloss.NewStyle().Foreground(SystemColor).Italic(true),
	StateMissing:  lipgloss.NewStyle().Foreground(ErrorColor).Strikethrough(true),
	StateLeftover: lipgloss.NewStyle().Foreground(LeftoverColor),
	StateEmbedded: lipgloss.NewStyle().Foreground(MutedColor),
}

// StateStyle returns the style IDs of state s are printed with.
func StateStyle(s State) lipgloss.Style {
	if st, ok := stateStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// Severity indicators
var severityPrefixes = map[string]*pterm.Style{
	"info":    pterm.NewStyle(pterm.FgCyan),
	"warning": pterm.NewStyle(pterm.FgBlack, pterm.BgYellow),
	"error":   pterm.NewStyle(pterm.FgWhite, pterm.BgRed, pterm.Bold),
}

// SeverityStyle returns the pterm style of a report severity name.
func SeverityStyle(severity string) *pterm.Style {
	if st, ok := severityPrefixes[severity]; ok {
		return st
	}
	return pterm.NewStyle(pterm.FgGray)
}

// Indent adds indentation to each line of text
func Indent(text string, level int) string {
	if level <= 0 {
		return text
	}
	indent := strings.Repeat("  ", level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
