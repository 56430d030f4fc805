// Package styles contains the navigator's Lip Gloss palette.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FAFAFA"}
	TextMutedColor   = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#696969"}

	// Accent marks the active tab, titles and sheet borders.
	AccentColor = lipgloss.AdaptiveColor{Light: "#5A3FD1", Dark: "#7D56F4"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	ActiveTab     = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor).Background(AccentColor)
	InactiveTab   = lipgloss.NewStyle().Foreground(TextMutedColor)
	MutedStyle    = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle    = lipgloss.NewStyle().Foreground(StatusErrorColor)
	SheetStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(AccentColor).Padding(0, 1)
	baseToastBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	ToastSuccess  = baseToastBox.BorderForeground(StatusSuccessColor)
	ToastError    = baseToastBox.BorderForeground(StatusErrorColor)
	ToastInfo     = baseToastBox.BorderForeground(StatusInfoColor)
)
