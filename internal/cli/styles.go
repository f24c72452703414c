// Package cli renders closet results for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colors keep text readable on light terminals.
var (
	plum    = lipgloss.AdaptiveColor{Light: "#7B4FB5", Dark: "#B388EB"}
	sage    = lipgloss.AdaptiveColor{Light: "#3E7D5A", Dark: "#8FD19E"}
	mustard = lipgloss.AdaptiveColor{Light: "#9A7400", Dark: "#F2C94C"}
	rose    = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#F28B82"}
	mist    = lipgloss.AdaptiveColor{Light: "#35708A", Dark: "#9AD0EC"}
	slate   = lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#8A8A8A"}
	seam    = lipgloss.AdaptiveColor{Light: "#CCCCCC", Dark: "#3A3A3A"}
)

var (
	// TitleStyle heads a report.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(plum).MarginBottom(1)

	// SubtitleStyle labels a section inside a report.
	SubtitleStyle = lipgloss.NewStyle().Foreground(slate).Italic(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(sage)
	WarningStyle = lipgloss.NewStyle().Foreground(mustard)
	ErrorStyle   = lipgloss.NewStyle().Foreground(rose).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(mist)
	SubtleStyle  = lipgloss.NewStyle().Foreground(slate)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// ScoreStyle highlights match scores, ratings and money figures.
	ScoreStyle = lipgloss.NewStyle().Bold(true).Foreground(sage)

	// BoxStyle frames summaries such as the import report.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(plum).
			Padding(1, 2)

	// TableHeaderStyle underlines column headings.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(seam)

	// TableCellStyle pads table cells.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ClosetIcon  = "👗"
	ChartIcon   = "📊"
	TrophyIcon  = "🏆"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess formats a success message.
func FormatSuccess(message string) string { return withIcon(SuccessStyle, SuccessIcon, message) }

// FormatError formats an error message.
func FormatError(message string) string { return withIcon(ErrorStyle, ErrorIcon, message) }

// FormatWarning formats a warning message.
func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

// FormatInfo formats an informational message.
func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle formats a report title.
func FormatTitle(title string) string { return withIcon(TitleStyle, ClosetIcon, title) }

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
