package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// Piste palette: red and green lamps on a dark strip.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateColor returns the style used for a session state.
func StateColor(s domain.SessionState) lipgloss.Style {
	switch s {
	case domain.StateCompleted:
		return StyleGreen
	case domain.StateError:
		return StyleRed
	case domain.StateAbandoned:
		return StyleDim
	case domain.StateFeedbackGenerated:
		return StylePurple
	case domain.StateCreated:
		return StyleBlue
	default:
		return StyleYellow
	}
}

// StatePill renders a session state with its indicator glyph.
func StatePill(s domain.SessionState) string {
	glyph := "●"
	switch s {
	case domain.StateCompleted:
		glyph = "✔"
	case domain.StateAbandoned:
		glyph = "✖"
	case domain.StateError:
		glyph = "▲"
	case domain.StateCreated:
		glyph = "○"
	}
	return StateColor(s).Render(glyph + " " + strings.ReplaceAll(string(s), "_", " "))
}

// ScoreColor grades a rubric score: 8 and up green, 5 to 7 yellow, below red.
func ScoreColor(score int) lipgloss.Style {
	switch {
	case score >= 8:
		return StyleGreen
	case score >= 5:
		return StyleYellow
	default:
		return StyleRed
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
