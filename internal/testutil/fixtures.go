package testutil

import (
	"encoding/json"
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/google/uuid"
)

const scenarioText = `The bout has reached a critical moment in the DE round of 8. You're trailing 8-12 with only 20 seconds remaining, and the psychological weight of potential elimination is crushing.

Your opponent, a technically disciplined fencer with a very-long distance preference, has been methodically controlling the bout's rhythm through calculated glide-pause advances and smooth retreats. Their defensive reflex of distance pulling combined with an occasional instant remise means any direct attack risks immediate counteraction.

Can you reset the bout's momentum by creating a deceptive spatial engagement that forces your opponent out of their defensive comfort zone?`

// ScenarioFixture returns a scenario that passes validation.
func ScenarioFixture() domain.Scenario {
	return domain.Scenario{Text: scenarioText}
}

// ChoicesFixture returns four options recommending A.
func ChoicesFixture() domain.Choices {
	return domain.Choices{
		Options: []string{
			"Execute a false-rhythm preparation with deliberately slower advances, then explosively accelerate with a fleche attack when opponent adjusts to the deceptive tempo.",
			"Launch immediate aggressive attacks with multiple feints and changes of line, attempting to overwhelm opponent's defensive system through sheer pressure.",
			"Employ stop-hits during opponent's glide-pause advances, timing the counter-attack to exploit the brief hesitation in their forward movement pattern.",
			"Retreat deliberately to invite pursuit, then execute a second-intention attack utilizing their forward momentum against their preferred long-distance game.",
		},
		Recommend: 0,
	}
}

// AnswerFixture returns a complete answer choosing A.
func AnswerFixture() domain.Answer {
	return domain.Answer{
		Choice:      domain.ChoiceA,
		Explanation: "B is suicidal; C is technically too challenging; D is unrealistic because they lead by 4 and have no need to chase me. I have to take the initiative.",
	}
}

// ChallengeFixture pairs ScenarioFixture and ChoicesFixture.
func ChallengeFixture() domain.Challenge {
	return domain.Challenge{Scenario: ScenarioFixture(), Choices: ChoicesFixture()}
}

// FeedbackFixture returns feedback totalling 75.
func FeedbackFixture() domain.Feedback {
	return domain.Feedback{
		ClockPressure:         9,
		TouchQuality:          8,
		Initiative:            9,
		OpponentHabits:        8,
		SkillAlignment:        7,
		PisteGeography:        6,
		ExternalFactors:       6,
		FatigueManagement:     7,
		InformationValue:      7,
		PsychologicalMomentum: 8,

		Acknowledgment:   "Your choice of the false-rhythm preparation followed by an explosive fleche shows excellent tactical understanding of the clock.",
		Analysis:         "This approach directly addresses the core tactical problem: your opponent's distance control. By deliberately varying your advance rhythm, you create uncertainty in their defensive timing. The subsequent explosive fleche exploits the moment when they're recalibrating to your deceptive tempo.",
		AdvancedConcepts: "The false-rhythm preparation demonstrates tempo manipulation, a high-level concept where you control not just distance but the perception of time.",
		BridgeToMastery:  "To elevate this tactic further, add a subtle shoulder feint during the slow advances. Practice varying the size of your advances as well as their speed.",
	}
}

// MustJSON marshals v or panics.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// TrainingSession options
type SessionOption func(*domain.TrainingSession)

func WithState(s domain.SessionState) SessionOption {
	return func(ts *domain.TrainingSession) {
		ts.State = s
	}
}

func WithUser(id string) SessionOption {
	return func(ts *domain.TrainingSession) {
		ts.UserID = &id
	}
}

func WithTimes(created, updated time.Time) SessionOption {
	return func(ts *domain.TrainingSession) {
		ts.CreatedAt = created
		ts.UpdatedAt = updated
	}
}

func WithInterface(iface string) SessionOption {
	return func(ts *domain.TrainingSession) {
		ts.Interface = iface
	}
}

// WithChallenge attaches the scenario and choices fixtures.
func WithChallenge() SessionOption {
	return func(ts *domain.TrainingSession) {
		sc, ch := ScenarioFixture(), ChoicesFixture()
		ts.Scenario = &sc
		ts.Choices = &ch
	}
}

// WithAnswer attaches an answer with the given choice and the fixture
// explanation.
func WithAnswer(c domain.Choice) SessionOption {
	return func(ts *domain.TrainingSession) {
		a := AnswerFixture()
		a.Choice = c
		ts.Answer = &a
	}
}

func WithFeedback() SessionOption {
	return func(ts *domain.TrainingSession) {
		fb := FeedbackFixture()
		ts.Feedback = &fb
	}
}

func WithDurations(ttc, tte time.Duration) SessionOption {
	return func(ts *domain.TrainingSession) {
		total := ttc + tte
		ts.TimeToChoice = &ttc
		ts.TimeToExplanation = &tte
		ts.TotalSessionTime = &total
	}
}

// WithCompleted fills a fully completed session answering c.
func WithCompleted(c domain.Choice, ttc, tte time.Duration) SessionOption {
	return func(ts *domain.TrainingSession) {
		WithChallenge()(ts)
		WithAnswer(c)(ts)
		WithFeedback()(ts)
		WithDurations(ttc, tte)(ts)
		ts.State = domain.StateCompleted
	}
}

func NewTestTrainingSession(opts ...SessionOption) *domain.TrainingSession {
	now := time.Now().UTC().Truncate(time.Second)
	s := &domain.TrainingSession{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		State:     domain.StateCreated,
		Interface: domain.InterfaceCLI,
		ModelUsed: "llama3.2",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
