package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/attention-cleaner/internal/popup"
	"github.com/lotas/attention-cleaner/internal/rules"
)

type settingRow int

const (
	rowFocus settingRow = iota
	rowAds
	rowSidebars
	rowRecommendations
	rowComments
	rowPopups
	rowReading
	rowTempClean
	rowCount
)

var rowLabels = [rowCount]string{
	rowFocus:           "Focus mode",
	rowAds:             "Hide ads",
	rowSidebars:        "Hide sidebars",
	rowRecommendations: "Hide recommendations",
	rowComments:        "Hide comments",
	rowPopups:          "Hide popups",
	rowReading:         "Reading mode",
	rowTempClean:       "Temporary clean",
}

var rowCategories = map[settingRow]rules.Category{
	rowAds:             rules.Ads,
	rowSidebars:        rules.Sidebars,
	rowRecommendations: rules.Recommendations,
	rowComments:        rules.Comments,
	rowPopups:          rules.Popups,
}

type SettingsView struct {
	cursor settingRow
}

func (v SettingsView) Update(msg tea.KeyMsg, state popup.State, p *panel) (SettingsView, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < rowCount-1 {
			v.cursor++
		}
	case "enter", " ":
		return v, v.toggle(state, p)
	case "left", "h":
		if v.cursor == rowTempClean {
			return v, setTempClean(p, stepTempClean(state.TempClean, -1))
		}
	case "right", "l":
		if v.cursor == rowTempClean {
			return v, setTempClean(p, stepTempClean(state.TempClean, 1))
		}
	}
	return v, nil
}

func (v SettingsView) toggle(state popup.State, p *panel) tea.Cmd {
	switch v.cursor {
	case rowFocus:
		on := !state.Preferences.FocusMode
		return p.do(func(ctx context.Context, c *popup.Controller) error {
			return c.SetFocus(ctx, on)
		})
	case rowReading:
		return p.do(func(ctx context.Context, c *popup.Controller) error {
			_, err := c.ToggleReadingMode(ctx)
			return err
		})
	case rowTempClean:
		return setTempClean(p, stepTempClean(state.TempClean, 1))
	}
	cat, ok := rowCategories[v.cursor]
	if !ok {
		return nil
	}
	on := !state.Preferences.Enabled(cat)
	return p.do(func(ctx context.Context, c *popup.Controller) error {
		return c.SetCategory(ctx, cat, on)
	})
}

func setTempClean(p *panel, minutes int) tea.Cmd {
	return p.do(func(ctx context.Context, c *popup.Controller) error {
		return c.SetTempClean(ctx, minutes)
	})
}

// stepTempClean moves through the duration options, wrapping at both ends.
func stepTempClean(current, dir int) int {
	opts := popup.TempCleanOptions
	idx := 0
	for i, m := range opts {
		if m == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(opts)) % len(opts)
	return opts[idx]
}

func (v SettingsView) View(state popup.State) string {
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	offStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	check := func(on bool) string {
		if on {
			return onStyle.Render("[x]")
		}
		return offStyle.Render("[ ]")
	}

	var b strings.Builder
	b.WriteString("\n")
	for row := settingRow(0); row < rowCount; row++ {
		var value string
		switch row {
		case rowFocus:
			value = check(state.Preferences.FocusMode)
		case rowReading:
			value = check(state.ReadingMode)
		case rowTempClean:
			value = tempCleanLabel(state.TempClean)
		default:
			value = check(state.Preferences.Enabled(rowCategories[row]))
		}

		label := fmt.Sprintf(" %-22s", rowLabels[row])
		if row == v.cursor {
			label = cursorStyle.Render(label)
		}
		b.WriteString(" " + label + " " + value + "\n")

		if row == rowFocus || row == rowPopups {
			b.WriteString(sepStyle.Render("  "+strings.Repeat("─", 30)) + "\n")
		}
	}
	return b.String()
}

func tempCleanLabel(minutes int) string {
	if minutes == 0 {
		return "< off >"
	}
	return fmt.Sprintf("< %d min >", minutes)
}
