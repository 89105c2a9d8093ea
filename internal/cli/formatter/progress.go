package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderScoreBar renders a rubric score as a ten-cell bar like ███████░░░ 7.
func RenderScoreBar(score int) string {
	filled := score
	if filled < 0 {
		filled = 0
	}
	if filled > domain.MaxRubricScore {
		filled = domain.MaxRubricScore
	}
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, domain.MaxRubricScore-filled)
	return fmt.Sprintf("%s %2d", ScoreColor(score).Render(bar), score)
}

// RenderProgress renders a ratio as [████░░░░]  45%.
func RenderProgress(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}
	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}
