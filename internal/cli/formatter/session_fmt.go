package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

const textWidth = 76

// FormatChallenge renders the scenario and its four lettered options.
func FormatChallenge(c domain.Challenge) string {
	var b strings.Builder
	b.WriteString(Header("Scenario"))
	b.WriteString("\n\n")
	b.WriteString(Wrap(c.Scenario.Text, textWidth))
	b.WriteString("\n\n")
	b.WriteString(Header("Options"))
	b.WriteString("\n\n")
	for i, opt := range c.Choices.Options {
		letter := domain.Choice(i).Letter()
		b.WriteString(StyleBold.Render(letter + ")"))
		b.WriteString(" ")
		b.WriteString(strings.TrimPrefix(Indent(Wrap(opt, textWidth-4), 4), "    "))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatFeedback renders the rubric, the total and the four coaching
// sections. The recommended option is revealed next to the trainee's pick.
func FormatFeedback(f domain.Feedback, answer domain.Answer, recommended domain.Choice) string {
	var b strings.Builder

	verdict := StyleGreen.Render("matches the recommendation")
	if answer.Choice != recommended {
		verdict = StyleYellow.Render("recommended was " + recommended.Letter())
	}
	fmt.Fprintf(&b, "%s %s  %s\n\n", Dim("Your choice:"), Bold(answer.Choice.Letter()), verdict)

	rubric := f.Rubric()
	width := 0
	for _, r := range rubric {
		width = max(width, len(r.Label))
	}
	for _, r := range rubric {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, r.Label, RenderScoreBar(r.Score))
	}
	total := f.Total()
	fmt.Fprintf(&b, "\n  %-*s  %s\n\n", width, "Total", Bold(fmt.Sprintf("%d / %d", total, domain.MaxRubricScore*len(rubric))))

	sections := []struct{ title, body string }{
		{"Acknowledgment", f.Acknowledgment},
		{"Analysis", f.Analysis},
		{"Advanced Concepts", f.AdvancedConcepts},
		{"Bridge to Mastery", f.BridgeToMastery},
	}
	for _, s := range sections {
		b.WriteString(Header(s.title))
		b.WriteString("\n")
		b.WriteString(Wrap(s.body, textWidth))
		b.WriteString("\n\n")
	}
	return RenderBox("Coaching Feedback", strings.TrimRight(b.String(), "\n"))
}

// FormatSessionList renders listing rows relative to now.
func FormatSessionList(list []domain.SessionSummary, now time.Time) string {
	if len(list) == 0 {
		return Dim("No sessions found.") + "\n"
	}
	headers := []string{"ID", "CREATED", "STATE", "VIA", "CHOICE", "DURATION"}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			TruncID(s.ID),
			HumanTimestampFrom(s.CreatedAt, now),
			StatePill(s.State),
			s.Interface,
			choiceCell(s),
			FormatOptionalDuration(s.TotalTime),
		})
	}
	return RenderBox("Sessions", RenderTable(headers, rows))
}

func choiceCell(s domain.SessionSummary) string {
	if s.UserChoice == nil {
		return Dim("--")
	}
	letter := s.UserChoice.Letter()
	if s.ChoiceCorrect == nil {
		return letter
	}
	if *s.ChoiceCorrect {
		return StyleGreen.Render(letter + " ✔")
	}
	return StyleYellow.Render(letter + " ✖")
}

// FormatSessionDetail renders a full session including its timings.
func FormatSessionDetail(s *domain.TrainingSession) string {
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-12s", label)), value)
	}
	field("ID", s.ID)
	field("State", StatePill(s.State))
	field("Created", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	field("Interface", s.Interface)
	field("Model", s.ModelUsed)
	if s.UserID != nil {
		field("User", *s.UserID)
	}
	field("To choice", FormatOptionalDuration(s.TimeToChoice))
	field("To explain", FormatOptionalDuration(s.TimeToExplanation))
	field("Total", FormatOptionalDuration(s.TotalSessionTime))
	if s.ErrorMessage != "" {
		field("Message", StyleRed.Render(s.ErrorMessage))
	}
	if s.ErrorCount > 0 {
		field("Errors", fmt.Sprintf("%d", s.ErrorCount))
	}
	if s.Scenario != nil && s.Choices != nil {
		b.WriteString("\n")
		b.WriteString(FormatChallenge(domain.Challenge{Scenario: *s.Scenario, Choices: *s.Choices}))
	}
	if s.Answer != nil {
		b.WriteString("\n")
		b.WriteString(Header("Answer"))
		fmt.Fprintf(&b, "\n\n%s %s\n", Bold(s.Answer.Choice.Letter()+")"), Wrap(s.Answer.Explanation, textWidth-3))
	}
	if s.Feedback != nil && s.Answer != nil && s.Choices != nil {
		b.WriteString("\n")
		b.WriteString(FormatFeedback(*s.Feedback, *s.Answer, s.Choices.Recommended()))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatEvents renders a session's audit log in order.
func FormatEvents(evs []domain.SessionEvent) string {
	if len(evs) == 0 {
		return Dim("No events.") + "\n"
	}
	headers := []string{"TIME", "TYPE", "TRANSITION", "DETAIL"}
	rows := make([][]string, 0, len(evs))
	for _, e := range evs {
		from, _ := e.Data["from"].(string)
		to, _ := e.Data["to"].(string)
		transition := to
		if from != "" {
			transition = from + " → " + to
		}
		typ := string(e.Type)
		if e.Type == domain.EventError {
			typ = StyleRed.Render(typ)
		}
		rows = append(rows, []string{
			e.Timestamp.Local().Format("15:04:05"),
			typ,
			transition,
			Dim(Truncate(eventDetail(e.Data), 48)),
		})
	}
	return RenderTable(headers, rows)
}

func eventDetail(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		switch k {
		case "op", "from", "to":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, data[k])
	}
	return strings.Join(parts, " ")
}
