package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/testutil"
)

func TestFormatChallenge_ListsLetteredOptions(t *testing.T) {
	out := stripANSI(FormatChallenge(testutil.ChallengeFixture()))
	assert.Contains(t, out, "SCENARIO")
	for _, letter := range []string{"A)", "B)", "C)", "D)"} {
		assert.Contains(t, out, letter)
	}
}

func TestFormatFeedback(t *testing.T) {
	fb := testutil.FeedbackFixture()

	out := stripANSI(FormatFeedback(fb, domain.Answer{Choice: domain.ChoiceB}, domain.ChoiceA))
	assert.Contains(t, out, "recommended was A")
	assert.Contains(t, out, "75 / 100")
	assert.Contains(t, out, "Psychological Momentum")
	assert.Contains(t, out, "BRIDGE TO MASTERY")

	out = stripANSI(FormatFeedback(fb, domain.Answer{Choice: domain.ChoiceA}, domain.ChoiceA))
	assert.Contains(t, out, "matches the recommendation")
}

func TestFormatSessionList(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	b := domain.ChoiceB
	a := domain.ChoiceA
	wrong := false
	total := 95 * time.Second

	out := stripANSI(FormatSessionList([]domain.SessionSummary{
		{ID: "0123456789", CreatedAt: now.Add(-2 * time.Hour), State: domain.StateCompleted, Interface: "cli",
			UserChoice: &b, RecommendedChoice: &a, ChoiceCorrect: &wrong, TotalTime: &total},
		{ID: "abcdefghij", CreatedAt: now.Add(-time.Minute), State: domain.StateCreated, Interface: "api"},
	}, now))
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "B ✖")
	assert.Contains(t, out, "1m 35s")

	assert.Equal(t, "No sessions found.\n", stripANSI(FormatSessionList(nil, now)))
}

func TestFormatSessionDetail_ShowsFeedbackOnceAvailable(t *testing.T) {
	sess := testutil.NewTestTrainingSession(testutil.WithState(domain.StateScenarioGenerated), testutil.WithChallenge())
	out := stripANSI(FormatSessionDetail(sess))
	assert.Contains(t, out, "scenario generated")
	assert.NotContains(t, out, "COACHING FEEDBACK")

	sess = testutil.NewTestTrainingSession(testutil.WithState(domain.StateFeedbackGenerated), testutil.WithChallenge(),
		testutil.WithAnswer(domain.ChoiceA), testutil.WithFeedback())
	out = stripANSI(FormatSessionDetail(sess))
	assert.Contains(t, out, "COACHING FEEDBACK")
	assert.Contains(t, out, "matches the recommendation")
}

func TestFormatEvents(t *testing.T) {
	ts := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)
	out := stripANSI(FormatEvents([]domain.SessionEvent{
		{Timestamp: ts, Type: domain.EventStateChange, Data: map[string]any{"op": "create", "to": "created"}},
		{Timestamp: ts, Type: domain.EventError, Data: map[string]any{"op": "scenario", "from": "created", "to": "error", "error": "boom"}},
	}))
	assert.Contains(t, out, "12:00:00")
	assert.Contains(t, out, "created → error")
	assert.Contains(t, out, "error=boom")
	assert.Equal(t, "No events.\n", stripANSI(FormatEvents(nil)))
}

func TestFormatStats(t *testing.T) {
	out := stripANSI(FormatUserPerformance(&domain.UserPerformance{
		UserID: "ana", Total: 4, Completed: 2, Abandoned: 1, AverageDuration: 90 * time.Second, ChoiceAccuracy: 0.5,
	}))
	assert.Contains(t, out, "PERFORMANCE: ANA")
	assert.Contains(t, out, "1m 30s")
	assert.Contains(t, out, "50%")

	out = stripANSI(FormatSystemAnalytics(&domain.SystemAnalytics{
		Total:              3,
		CompletionRate:     1.0 / 3,
		AbandonmentByState: map[domain.SessionState]int{domain.StateOptionSelected: 1},
		PopularChoices:     map[string]int{"C": 2},
	}))
	assert.Contains(t, out, "option_selected")
	assert.Contains(t, out, "C  2")
}

func TestSpinner_WritesAndClears(t *testing.T) {
	var buf bytes.Buffer
	stop := StartSpinner(&buf, "thinking")
	time.Sleep(200 * time.Millisecond)
	stop()
	stop()
	assert.Contains(t, stripANSI(buf.String()), "thinking")
}
