package tactics

import (
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
)

const ruleWidth = 80

// Section markers in the formatted context.
const (
	HeaderSituation = "📍 SITUATION:"
	HeaderOpponent  = "🤺 OPPONENT PROFILE:"
	HeaderSelf      = "💭 YOUR CURRENT STATE:"
)

// Rule is the full-width separator line.
var Rule = strings.Repeat("=", ruleWidth)

// Format renders ctx as the text block embedded in the scenario prompt.
// The output depends only on ctx: a banner between two rules, the three
// sections, and a closing rule.
func Format(ctx domain.ScenarioContext) string {
	var lines []string
	lines = append(lines, Rule, "COMPLETE SCENARIO CONTEXT", Rule)

	lines = append(lines,
		"\n"+HeaderSituation,
		"   Context: "+ctx.Situational.Context,
		"   Score: "+ctx.Situational.Score,
		"   Time: "+ctx.Situational.TimeRemaining,
	)

	lines = append(lines, "\n"+HeaderOpponent)
	prevCategory := ""
	for _, d := range domain.OpponentCatalog {
		if d.Category != prevCategory {
			lines = append(lines, "\n   "+domain.TitleWords(d.Category)+":")
			prevCategory = d.Category
		}
		lines = append(lines, "      "+d.DisplayName()+": "+d.Label(ctx.Opponent[d.Name]))
	}

	lines = append(lines, "\n"+HeaderSelf+"\n")
	for _, d := range domain.SelfEvaluationCatalog {
		lines = append(lines, "   "+d.DisplayName()+": "+d.Label(ctx.Self[d.Name]))
	}

	lines = append(lines, "\n"+Rule)
	return strings.Join(lines, "\n")
}
