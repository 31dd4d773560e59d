package export

import (
	"fmt"
	"strings"
	"time"
)

// Markdown formats a report as a markdown document.
func Markdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# Attention Cleaner\n")
	fmt.Fprintf(&b, "> Generated %s\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	if r.TempCleanEnd != nil {
		fmt.Fprintf(&b, "> Temporary clean %s\n", remaining(r.TempCleanEnd.Sub(r.GeneratedAt)))
	}

	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Time in focus: %d min\n", r.Statistics.TotalTimeInFocus)
	fmt.Fprintf(&b, "- Distractions blocked: %d\n", r.Statistics.DistractionsBlocked)
	fmt.Fprintf(&b, "- Sessions completed: %d\n", r.Statistics.SessionsCompleted)
	fmt.Fprintf(&b, "- Avg session: %d min\n", r.Summary.AvgSessionMinutes)
	fmt.Fprintf(&b, "- Avg blocked per session: %d\n", r.Summary.AvgBlockedPerSession)
	fmt.Fprintf(&b, "- Most productive time: %s\n", r.Summary.ProductiveTime)

	n := len(r.Sites)
	noun := "sites"
	if n == 1 {
		noun = "site"
	}
	fmt.Fprintf(&b, "\n## Sites (%d %s)\n\n", n, noun)
	if n == 0 {
		b.WriteString("No saved preferences.\n")
		return b.String()
	}

	b.WriteString("| Site | Focus | Ads | Sidebars | Recommendations | Comments | Popups | Reading |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, s := range r.Sites {
		name := s.Key
		if s.Global {
			name = "_global_"
		}
		p := s.Preferences
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			name, mark(p.FocusMode), mark(p.HideAds), mark(p.HideSidebars),
			mark(p.HideRecommendations), mark(p.HideComments), mark(p.HidePopups), mark(s.ReadingMode))
	}
	return b.String()
}

func mark(on bool) string {
	if on {
		return "x"
	}
	return ""
}

func remaining(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Minute:
		return "ends in under a minute"
	case d < time.Hour:
		return fmt.Sprintf("ends in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("ends in %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
