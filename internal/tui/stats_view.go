package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/attention-cleaner/internal/stats"
)

type StatsView struct {
	stats        stats.Statistics
	summary      stats.Summary
	loaded       bool
	confirmReset bool
}

func (v StatsView) Update(msg tea.KeyMsg, p *panel) (StatsView, tea.Cmd) {
	switch msg.String() {
	case "x":
		v.confirmReset = true
	case "enter":
		return v, p.readStats()
	}
	return v, nil
}

// Confirm answers the reset prompt. Anything but "y" cancels.
func (v StatsView) Confirm(key string, p *panel) (StatsView, tea.Cmd) {
	v.confirmReset = false
	if key == "y" {
		return v, p.resetStats()
	}
	return v, nil
}

func (v StatsView) View() string {
	if !v.loaded {
		return "\n  Loading statistics...\n"
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle := lipgloss.NewStyle().Bold(true)
	headStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)

	line := func(label, value string) string {
		return "  " + labelStyle.Render(fmt.Sprintf("%-24s", label)) + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n  " + headStyle.Render("Totals") + "\n")
	b.WriteString(line("Time in focus", fmt.Sprintf("%d min", v.stats.TotalTimeInFocus)))
	b.WriteString(line("Distractions blocked", fmt.Sprintf("%d", v.stats.DistractionsBlocked)))
	b.WriteString(line("Sessions completed", fmt.Sprintf("%d", v.stats.SessionsCompleted)))
	b.WriteString("\n  " + headStyle.Render("Insights") + "\n")
	b.WriteString(line("Avg session", fmt.Sprintf("%d min", v.summary.AvgSessionMinutes)))
	b.WriteString(line("Avg blocked per session", fmt.Sprintf("%d", v.summary.AvgBlockedPerSession)))
	b.WriteString(line("Most productive time", v.summary.ProductiveTime))

	if v.confirmReset {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		b.WriteString("\n  " + warn.Render("Reset all statistics? (y/n)") + "\n")
	}
	return b.String()
}
