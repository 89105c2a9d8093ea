package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Minimum text lengths, counted in characters.
const (
	MinScenarioLen         = 100
	MinExplanationLen      = 20
	MinAcknowledgmentLen   = 50
	MinAnalysisLen         = 200
	MinAdvancedConceptsLen = 100
	MinBridgeToMasteryLen  = 100
)

// Rubric score bounds.
const (
	MinRubricScore = 1
	MaxRubricScore = 10
)

// ValidationError reports a data invariant violation on a domain value.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func minLen(field, value string, n int) error {
	if utf8.RuneCountInString(value) < n {
		return &ValidationError{Field: field, Msg: fmt.Sprintf("must be at least %d characters, got %d", n, utf8.RuneCountInString(value))}
	}
	return nil
}

// Choice is an answer ordinal 0..3. Letters are a display concern.
type Choice int

const (
	ChoiceA Choice = iota
	ChoiceB
	ChoiceC
	ChoiceD
)

// Valid reports whether c indexes one of the four options.
func (c Choice) Valid() bool {
	return c >= ChoiceA && c <= ChoiceD
}

// Letter returns "A".."D", or "?" for an invalid ordinal.
func (c Choice) Letter() string {
	if !c.Valid() {
		return "?"
	}
	return string(rune('A' + int(c)))
}

func (c Choice) String() string { return c.Letter() }

// ParseChoice accepts a letter A-D in any case, surrounded by optional
// whitespace.
func ParseChoice(s string) (Choice, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	if len(norm) != 1 || norm[0] < 'A' || norm[0] > 'D' {
		return 0, &ValidationError{Field: "choice", Msg: fmt.Sprintf("%q is not one of A, B, C, D", s)}
	}
	return Choice(norm[0] - 'A'), nil
}

// Scenario is the generated tactical problem text.
type Scenario struct {
	Text string `json:"scenario"`
}

func (s Scenario) Validate() error {
	return minLen("scenario", s.Text, MinScenarioLen)
}

// Choices are the four strategic options and the recommended one.
type Choices struct {
	Options   []string `json:"options"`
	Recommend int      `json:"recommend"`
}

func (c Choices) Validate() error {
	if len(c.Options) != OptionsPerDimension {
		return &ValidationError{Field: "options", Msg: fmt.Sprintf("want %d options, got %d", OptionsPerDimension, len(c.Options))}
	}
	for i, opt := range c.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Field: fmt.Sprintf("options[%d]", i), Msg: "must not be empty"}
		}
	}
	if !Choice(c.Recommend).Valid() {
		return &ValidationError{Field: "recommend", Msg: fmt.Sprintf("index %d out of range 0..3", c.Recommend)}
	}
	return nil
}

// Recommended returns the recommended option as a Choice.
func (c Choices) Recommended() Choice { return Choice(c.Recommend) }

// Answer is the trainee's pick and justification. Inside a session the
// explanation stays empty until it is recorded.
type Answer struct {
	Choice      Choice `json:"choice"`
	Explanation string `json:"explanation"`
}

// NewAnswer builds a complete answer, enforcing the explanation minimum.
func NewAnswer(choice Choice, explanation string) (Answer, error) {
	a := Answer{Choice: choice, Explanation: explanation}
	if err := a.Validate(); err != nil {
		return Answer{}, err
	}
	return a, nil
}

func (a Answer) Validate() error {
	if err := a.ValidateChoice(); err != nil {
		return err
	}
	return ValidateExplanation(a.Explanation)
}

// ValidateChoice checks only the ordinal.
func (a Answer) ValidateChoice() error {
	if !a.Choice.Valid() {
		return &ValidationError{Field: "choice", Msg: fmt.Sprintf("ordinal %d out of range 0..3", int(a.Choice))}
	}
	return nil
}

// ValidateExplanation enforces the minimum justification length.
func ValidateExplanation(s string) error {
	return minLen("explanation", s, MinExplanationLen)
}

// Feedback is the rubric-scored coaching response.
type Feedback struct {
	ClockPressure         int `json:"score_clock_pressure"`
	TouchQuality          int `json:"score_touch_quality"`
	Initiative            int `json:"score_initiative"`
	OpponentHabits        int `json:"score_opponent_habits"`
	SkillAlignment        int `json:"score_skill_alignment"`
	PisteGeography        int `json:"score_piste_geography"`
	ExternalFactors       int `json:"score_external_factors"`
	FatigueManagement     int `json:"score_fatigue_management"`
	InformationValue      int `json:"score_information_value"`
	PsychologicalMomentum int `json:"score_psychological_momentum"`

	Acknowledgment   string `json:"acknowledgment"`
	Analysis         string `json:"analysis"`
	AdvancedConcepts string `json:"advanced_concepts"`
	BridgeToMastery  string `json:"bridge_to_mastery"`
}

// RubricScore is one named criterion and its score.
type RubricScore struct {
	Key   string
	Label string
	Score int
}

// Rubric lists the ten criteria in presentation order.
func (f Feedback) Rubric() []RubricScore {
	return []RubricScore{
		{"score_clock_pressure", "Clock Pressure", f.ClockPressure},
		{"score_touch_quality", "Touch Quality", f.TouchQuality},
		{"score_initiative", "Initiative", f.Initiative},
		{"score_opponent_habits", "Opponent Habits", f.OpponentHabits},
		{"score_skill_alignment", "Skill Alignment", f.SkillAlignment},
		{"score_piste_geography", "Piste Geography", f.PisteGeography},
		{"score_external_factors", "External Factors", f.ExternalFactors},
		{"score_fatigue_management", "Fatigue Management", f.FatigueManagement},
		{"score_information_value", "Information Value", f.InformationValue},
		{"score_psychological_momentum", "Psychological Momentum", f.PsychologicalMomentum},
	}
}

// Total sums the rubric; a valid feedback lands in [10,100].
func (f Feedback) Total() int {
	total := 0
	for _, r := range f.Rubric() {
		total += r.Score
	}
	return total
}

func (f Feedback) Validate() error {
	for _, r := range f.Rubric() {
		if r.Score < MinRubricScore || r.Score > MaxRubricScore {
			return &ValidationError{Field: r.Key, Msg: fmt.Sprintf("score %d out of range %d..%d", r.Score, MinRubricScore, MaxRubricScore)}
		}
	}
	if err := minLen("acknowledgment", f.Acknowledgment, MinAcknowledgmentLen); err != nil {
		return err
	}
	if err := minLen("analysis", f.Analysis, MinAnalysisLen); err != nil {
		return err
	}
	if err := minLen("advanced_concepts", f.AdvancedConcepts, MinAdvancedConceptsLen); err != nil {
		return err
	}
	return minLen("bridge_to_mastery", f.BridgeToMastery, MinBridgeToMasteryLen)
}

// Challenge pairs a scenario with its options for the editing pass.
type Challenge struct {
	Scenario Scenario `json:"scenario"`
	Choices  Choices  `json:"choices"`
}

func (c Challenge) Validate() error {
	if err := c.Scenario.Validate(); err != nil {
		return err
	}
	return c.Choices.Validate()
}
