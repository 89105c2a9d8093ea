package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
)

func FormatUserPerformance(p *domain.UserPerformance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", Dim("Sessions     "), p.Total)
	fmt.Fprintf(&b, "%s %d\n", Dim("Completed    "), p.Completed)
	fmt.Fprintf(&b, "%s %d\n", Dim("Abandoned    "), p.Abandoned)
	fmt.Fprintf(&b, "%s %s\n", Dim("Avg duration "), FormatDuration(p.AverageDuration))
	fmt.Fprintf(&b, "%s %s", Dim("Accuracy     "), RenderProgress(p.ChoiceAccuracy, 20))
	return RenderBox("Performance: "+p.UserID, b.String())
}

func FormatSystemAnalytics(a *domain.SystemAnalytics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", Dim("Sessions     "), a.Total)
	fmt.Fprintf(&b, "%s %s\n", Dim("Completion   "), RenderProgress(a.CompletionRate, 20))
	fmt.Fprintf(&b, "%s %s\n", Dim("Avg duration "), FormatDuration(a.AverageDuration))

	if len(a.AbandonmentByState) > 0 {
		b.WriteString("\n" + Header("Abandoned at") + "\n")
		states := make([]string, 0, len(a.AbandonmentByState))
		for s := range a.AbandonmentByState {
			states = append(states, string(s))
		}
		sort.Strings(states)
		for _, s := range states {
			fmt.Fprintf(&b, "  %-22s %d\n", s, a.AbandonmentByState[domain.SessionState(s)])
		}
	}
	if len(a.PopularChoices) > 0 {
		b.WriteString("\n" + Header("Choices") + "\n")
		for _, letter := range []string{"A", "B", "C", "D"} {
			if n, ok := a.PopularChoices[letter]; ok {
				fmt.Fprintf(&b, "  %s  %d\n", Bold(letter), n)
			}
		}
	}
	return RenderBox("Training Analytics", strings.TrimRight(b.String(), "\n"))
}
