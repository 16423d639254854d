package lint

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Report renders lint results as a terminal summary. Passed checks are
// listed only when showPassed is set; the totals line always appears.
func Report(results []*Result, showPassed bool) string {
	var b strings.Builder
	totalPass, totalFail := 0, 0

	for _, res := range results {
		totalPass += len(res.Passed)
		totalFail += len(res.Failed)

		if len(res.Failed) == 0 && !showPassed {
			continue
		}
		b.WriteString(headerStyle.Render(res.Component) + "\n")
		if showPassed {
			for _, c := range res.Passed {
				fmt.Fprintf(&b, "  %s %s %s\n",
					passStyle.Render("PASS"), fileStyle.Render(c.File), dimStyle.Render(c.Message))
			}
		}
		for _, c := range res.Failed {
			fmt.Fprintf(&b, "  %s %s %s\n",
				failStyle.Render("FAIL"), fileStyle.Render(c.File), c.Message)
		}
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%s %d  %s %d",
		passStyle.Render("passed:"), totalPass,
		failStyle.Render("failed:"), totalFail)
	b.WriteString(summary + "\n")
	return b.String()
}
