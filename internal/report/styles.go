package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue - variable names

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - hints, unset values

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	divider = dimStyle.Render(strings.Repeat("━", 60))
)
