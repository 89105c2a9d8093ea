package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Selection maps a dimension name to the chosen option ordinal.
type Selection map[string]int

// OpponentProfile holds one choice for every opponent dimension.
type OpponentProfile Selection

// FencerSelfEvaluation holds one choice for every self-state dimension.
type FencerSelfEvaluation Selection

// Validate checks the profile covers the opponent catalog exactly.
func (p OpponentProfile) Validate() error {
	return validateSelection("opponent_profile", Selection(p), OpponentCatalog)
}

// Validate checks the evaluation covers the self-state catalog exactly.
func (e FencerSelfEvaluation) Validate() error {
	return validateSelection("fencer_self_evaluation", Selection(e), SelfEvaluationCatalog)
}

func validateSelection(field string, sel Selection, catalog []ProfileDimension) error {
	known := make(map[string]bool, len(catalog))
	var missing []string
	for _, d := range catalog {
		known[d.Name] = true
		idx, ok := sel[d.Name]
		if !ok {
			missing = append(missing, d.Name)
			continue
		}
		if idx < 0 || idx >= OptionsPerDimension {
			return &ValidationError{Field: field + "." + d.Name, Msg: fmt.Sprintf("choice %d out of range 0..%d", idx, OptionsPerDimension-1)}
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Field: field, Msg: "missing dimensions: " + strings.Join(missing, ", ")}
	}
	var extra []string
	for name := range sel {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return &ValidationError{Field: field, Msg: "unknown dimensions: " + strings.Join(extra, ", ")}
	}
	return nil
}

// SituationalFactors is the bout situation around the scenario.
type SituationalFactors struct {
	Context       string `json:"context"`
	Score         string `json:"score"`
	TimeRemaining string `json:"time_remaining"`
}

// ScenarioContext is one sampled set of inputs for scenario generation.
// It is never mutated after sampling.
type ScenarioContext struct {
	Opponent    OpponentProfile      `json:"opponent_profile"`
	Self        FencerSelfEvaluation `json:"fencer_self_evaluation"`
	Situational SituationalFactors   `json:"situational_factors"`
}

// Validate checks both selections against their catalogs.
func (c ScenarioContext) Validate() error {
	if err := c.Opponent.Validate(); err != nil {
		return err
	}
	return c.Self.Validate()
}
