package tui

import "github.com/charmbracelet/lipgloss"

// ColorRed colors text red
func ColorRed(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")).
		Render(text)
}

// ColorApplied styles the name of an applied patch
func ColorApplied(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Render(text)
}

// ColorCurrent styles the name of the topmost applied patch
func ColorCurrent(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")).
		Bold(true).
		Render(text)
}

// ColorHidden styles the name of a hidden patch
func ColorHidden(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(text)
}

// ColorConflict styles text describing a merge conflict
func ColorConflict(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Bold(true).
		Render(text)
}
