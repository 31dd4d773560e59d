package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type ViewType int

const (
	ViewSettings ViewType = iota
	ViewStats
)

var viewNames = []string{"Settings", "Stats"}

func renderNavbar(active ViewType, site, status string, width int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	siteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	var tabs string
	for i, name := range viewNames {
		if i > 0 {
			tabs += inactiveStyle.Render(" │ ")
		}
		if ViewType(i) == active {
			tabs += activeStyle.Render(name)
		} else {
			tabs += inactiveStyle.Render(name)
		}
	}

	left := " " + tabs
	if status != "" {
		left += "   " + statusStyle.Render(status)
	}

	right := siteStyle.Render(site)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	padding := lipgloss.NewStyle().Width(gap)

	return left + padding.Render("") + right + " "
}
