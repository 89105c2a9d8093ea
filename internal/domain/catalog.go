package domain

import (
	"fmt"
	"strings"
)

// OptionsPerDimension is the fixed number of labeled options every
// profile dimension carries. Choice ordinals index into them.
const OptionsPerDimension = 4

// ProfileDimension is one tactical trait with its four ordered labels.
type ProfileDimension struct {
	Category string
	Name     string
	Options  []string
}

// DisplayName renders the dimension name for humans: "point_in_line_use"
// becomes "Point In Line Use".
func (d ProfileDimension) DisplayName() string {
	return TitleWords(d.Name)
}

// Label returns the option text at idx, or "" when idx is out of range.
func (d ProfileDimension) Label(idx int) string {
	if idx < 0 || idx >= len(d.Options) {
		return ""
	}
	return d.Options[idx]
}

// TitleWords replaces underscores with spaces and upper-cases the first
// letter of every word.
func TitleWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Opponent dimension categories, in catalog order.
const (
	CategoryDistanceMobility      = "distance_mobility"
	CategoryInitiativeAttack      = "initiative_attack"
	CategoryDefenceBlade          = "defence_blade"
	CategoryAdaptabilityTempo     = "adaptability_tempo"
	CategoryPsychologicalPhysical = "psychological_physical"
	CategoryCloseQuartersStrip    = "close_quarters_strip"
	CategoryDisciplineTells       = "discipline_tells"
	CategorySelfState             = "self_state"
)

// OpponentCatalog lists the 32 opponent dimensions. Order drives the
// layout of the formatted context, so entries of one category stay
// contiguous.
var OpponentCatalog = []ProfileDimension{
	{CategoryDistanceMobility, "preferred_distance", []string{"Very-long", "Long", "Mid", "Short"}},
	{CategoryDistanceMobility, "footwork_rhythm", []string{"Bouncy", "Flat-glide", "Pause-burst", "Mixed/random"}},
	{CategoryDistanceMobility, "advance_style", []string{"Big strides", "Micro-steps", "Hop-bounce", "Glide-pause"}},
	{CategoryDistanceMobility, "retreat_style", []string{"Fast bounce", "Smooth glide", "Slow-parry-retreat", "Sudden stop & counter"}},
	{CategoryDistanceMobility, "acceleration_pattern", []string{"Sudden burst", "Gradual build", "Flat-paced", "Cyclic bursts"}},
	{CategoryDistanceMobility, "distance_attack_trigger", []string{"Shoots from long", "Mid-launch", "Waits close", "Opportunistic/variable"}},

	{CategoryInitiativeAttack, "opening_action", []string{"Step-lunge", "Fleche", "Slow prep", "Counter-attack"}},
	{CategoryInitiativeAttack, "attack_initiative", []string{"Constant aggressor", "Balanced", "Mainly reactive", "Rare-but-explosive"}},
	{CategoryInitiativeAttack, "entry_footwork", []string{"Clean step-lunge", "Step-step-lunge", "Fleche/run", "No-prep hit"}},
	{CategoryInitiativeAttack, "flick_angled_hits", []string{"Very frequent", "Occasional", "Rare", "Never"}},
	{CategoryInitiativeAttack, "point_in_line_use", []string{"Frequent", "Occasional", "Rare", "Never"}},
	{CategoryInitiativeAttack, "compound_depth", []string{"Multi-feint chains", "Single feint", "Direct only", "Broken-timing hits"}},

	{CategoryDefenceBlade, "defensive_reflex", []string{"Parry-riposte", "Distance pull", "Counter-attack", "In-quartata"}},
	{CategoryDefenceBlade, "primary_parry_line", []string{"High-outside", "High-inside", "Low-outside", "Low-inside"}},
	{CategoryDefenceBlade, "parry_timing", []string{"Early/pre-empt", "On-time", "Late/drag", "Seldom parries"}},
	{CategoryDefenceBlade, "riposte_style", []string{"Direct", "Angulated", "Disengage", "Delayed walk-forward"}},
	{CategoryDefenceBlade, "remise_redouble", []string{"Instant remise", "Footwork chase", "Rare second action", "Multi-phase pursuit"}},
	{CategoryDefenceBlade, "reaction_to_beat", []string{"Opens/panics", "Holds strong", "Disengages", "Beats back/counters"}},
	{CategoryDefenceBlade, "counter_time_habit", []string{"Very often", "Regular", "Occasional", "Never"}},

	{CategoryAdaptabilityTempo, "setup_vs_direct", []string{"Pure direct", "Simple 2-phase", "Multi-phase 3+", "Unpredictable mix"}},
	{CategoryAdaptabilityTempo, "adaptability_speed", []string{"Very slow >4 touches", "Moderate 2-3", "Fast 1", "Constantly shifting"}},
	{CategoryAdaptabilityTempo, "tempo_preference", []string{"Slow build", "Medium", "Frenetic", "Variable"}},
	{CategoryAdaptabilityTempo, "feint_susceptibility", []string{"Bites easily", "Sometimes", "Rarely", "Reads everything"}},

	{CategoryPsychologicalPhysical, "score_pressure", []string{"Lead=slow/Trail=rush", "Lead=rush/Trail=cautious", "Both conservative", "Both aggressive"}},
	{CategoryPsychologicalPhysical, "psychological_temperature", []string{"Ice-calm", "Focused", "Nervous/anxious", "Volatile"}},
	{CategoryPsychologicalPhysical, "cardio_recovery", []string{"Winded quickly", "Average", "Fresh late", "Fades gradually"}},
	{CategoryPsychologicalPhysical, "risk_tolerance", []string{"High-risk shooter", "Balanced", "Ultra-safe", "Situational gambler"}},

	{CategoryCloseQuartersStrip, "favorite_line_target", []string{"High-outside", "High-inside", "Low-outside", "Low-inside"}},
	{CategoryCloseQuartersStrip, "in_fight_skill", []string{"Dominates grips", "Competent", "Avoids clinch", "Loses clearly"}},
	{CategoryCloseQuartersStrip, "edge_of_strip_behavior", []string{"Attacks forward", "Stops & counters", "Flees/steps off", "Side-slides along line"}},

	{CategoryDisciplineTells, "blade_tell", []string{"Drops tip", "Big circle", "Twitch before lunge", "No obvious tell"}},
	{CategoryDisciplineTells, "penalty_history", []string{"Corps-à-corps", "Covering", "Early start", "None noted"}},
}

// SelfEvaluationCatalog lists the 10 fencer self-state dimensions.
var SelfEvaluationCatalog = []ProfileDimension{
	{CategorySelfState, "emotional_arousal", []string{
		"Hot - adrenaline spiking, impulsive actions",
		"Optimal - energised yet calm",
		"Cool - slightly detached, reactions slowed",
		"Flat - emotionally numb, no urgency",
	}},
	{CategorySelfState, "physical_energy", []string{
		"Over-charged - muscles jittery, rigid",
		"Primed - loose, springy legs",
		"Lagging - heaviness, slight fatigue",
		"Drained - legs burning, slow recoveries",
	}},
	{CategorySelfState, "mental_focus", []string{
		"Scattered - distracted by crowd/score",
		"Sharp - single-task focus on touch",
		"Narrow - locked on weapon tip only",
		"Foggy - mind wandering, late reads",
	}},
	{CategorySelfState, "tactical_clarity", []string{
		"Tunnel-visioned - forcing one idea",
		"Dynamic Plan - aware of multiple lines",
		"Reactive-only - waiting to see",
		"Uncertain - no plan or reaction",
	}},
	{CategorySelfState, "distance_sense", []string{
		"Too Close - crowding, blade jams",
		"Balanced - can hit/abort at will",
		"Too Far - always just short",
		"Undefined - distance surprises you",
	}},
	{CategorySelfState, "tempo_awareness", []string{
		"Rushing - stepping into opponent's rhythm",
		"In-sync - dictating start-stop flow",
		"Lagging Beat - counter-tempo late",
		"Tempo-blind - no feel for rhythm",
	}},
	{CategorySelfState, "risk_appetite", []string{
		"Gambling - low-percentage lunges",
		"Calculated - odds assessed every action",
		"Over-cautious - passing on good openings",
		"Frozen - unwilling to commit",
	}},
	{CategorySelfState, "confidence_level", []string{
		"Cocky - under-estimating danger",
		"Grounded - belief matched to facts",
		"Doubting - second-guessing choices",
		"Defeatist - expecting to lose",
	}},
	{CategorySelfState, "breathing_control", []string{
		"Panting - shallow chest breaths",
		"Controlled - steady diaphragmatic",
		"Irregular - holds breath on attacks",
		"Gasping - breathing dictates pace",
	}},
	{CategorySelfState, "visual_focus", []string{
		"Hyper-zoom - staring at point only",
		"Soft-wide - blade, arm, body & piste",
		"Peripheral-loss - see body, not tip",
		"Blurred - eyes tired, focus slips",
	}},
}

// SituationalContext is a competition phase and the scorelines that are
// plausible in it.
type SituationalContext struct {
	Key    string
	Scores []string
}

// Label is the context as shown to the trainee ("de round 32").
func (c SituationalContext) Label() string {
	return strings.ReplaceAll(c.Key, "_", " ")
}

var deScores = []string{
	"leading 14-11",
	"trailing 8-12",
	"tied 10-10",
	"leading 9-7",
	"trailing 4-8",
	"tied 13-13",
	"leading 7-5",
	"trailing 11-14",
}

// SituationalContexts lists the four competition phases.
var SituationalContexts = []SituationalContext{
	{Key: "pool_bout", Scores: []string{
		"leading 4-2",
		"trailing 2-3",
		"tied 3-3",
		"leading 3-1",
		"trailing 1-4",
		"tied 2-2",
		"leading 4-3",
	}},
	{Key: "de_round_32", Scores: deScores},
	{Key: "de_round_8", Scores: deScores},
	{Key: "semi_final", Scores: deScores},
}

// TimeRemainingPhrases is the flat pool of clock phrasings. Nothing ties a
// phrase to a context or score.
var TimeRemainingPhrases = []string{
	"3:00 remaining",
	"2:00 remaining",
	"1:00 remaining",
	"2:45 remaining",
	"2:30 remaining",
	"2:15 remaining",
	"1:45 remaining",
	"1:30 remaining",
	"1:15 remaining",
	"90 seconds left",
	"75 seconds left",
	"60 seconds left",
	"45 seconds left",
	"30 seconds left",
	"final 20 seconds",
	"final 15 seconds",
	"final 10 seconds",
	"last 45 seconds",
	"under 2 minutes",
	"under 1 minute",
	"clock winding down",
}

// FindSituationalContext looks a context up by its label or key.
func FindSituationalContext(name string) (SituationalContext, bool) {
	key := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	for _, c := range SituationalContexts {
		if c.Key == key {
			return c, true
		}
	}
	return SituationalContext{}, false
}

// CatalogIntegrityError reports malformed static catalog data.
type CatalogIntegrityError struct {
	Catalog   string
	Dimension string
	Reason    string
}

func (e *CatalogIntegrityError) Error() string {
	return fmt.Sprintf("catalog %s: dimension %q: %s", e.Catalog, e.Dimension, e.Reason)
}

// ValidateCatalog checks the static catalogs once at startup: every
// dimension has exactly four non-empty options, names are unique, and
// categories form contiguous runs.
func ValidateCatalog() error {
	if err := validateDimensions("opponent", OpponentCatalog); err != nil {
		return err
	}
	if err := validateDimensions("self_evaluation", SelfEvaluationCatalog); err != nil {
		return err
	}
	for _, c := range SituationalContexts {
		if len(c.Scores) == 0 {
			return &CatalogIntegrityError{Catalog: "situational", Dimension: c.Key, Reason: "no scores"}
		}
	}
	if len(TimeRemainingPhrases) == 0 {
		return &CatalogIntegrityError{Catalog: "time_remaining", Dimension: "-", Reason: "no phrases"}
	}
	return nil
}

func validateDimensions(catalog string, dims []ProfileDimension) error {
	if len(dims) == 0 {
		return &CatalogIntegrityError{Catalog: catalog, Dimension: "-", Reason: "empty catalog"}
	}
	seenNames := make(map[string]bool, len(dims))
	closedCategories := make(map[string]bool)
	prev := ""
	for _, d := range dims {
		if len(d.Options) != OptionsPerDimension {
			return &CatalogIntegrityError{
				Catalog:   catalog,
				Dimension: d.Name,
				Reason:    fmt.Sprintf("has %d options, want %d", len(d.Options), OptionsPerDimension),
			}
		}
		for i, opt := range d.Options {
			if strings.TrimSpace(opt) == "" {
				return &CatalogIntegrityError{Catalog: catalog, Dimension: d.Name, Reason: fmt.Sprintf("option %d is empty", i)}
			}
		}
		if seenNames[d.Name] {
			return &CatalogIntegrityError{Catalog: catalog, Dimension: d.Name, Reason: "duplicate name"}
		}
		seenNames[d.Name] = true

		if d.Category != prev {
			if closedCategories[d.Category] {
				return &CatalogIntegrityError{Catalog: catalog, Dimension: d.Name, Reason: "category " + d.Category + " is not contiguous"}
			}
			if prev != "" {
				closedCategories[prev] = true
			}
			prev = d.Category
		}
	}
	return nil
}
