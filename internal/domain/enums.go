package domain

// SessionState is a training session's position in its lifecycle.
type SessionState string

const (
	StateCreated             SessionState = "created"
	StateScenarioGenerated   SessionState = "scenario_generated"
	StateOptionSelected      SessionState = "option_selected"
	StateExplanationProvided SessionState = "explanation_provided"
	StateFeedbackGenerated   SessionState = "feedback_generated"
	StateCompleted           SessionState = "completed"
	StateAbandoned           SessionState = "abandoned"
	StateError               SessionState = "error"
)

// HappyPath is the ordered sequence of states a successful session visits.
var HappyPath = []SessionState{
	StateCreated,
	StateScenarioGenerated,
	StateOptionSelected,
	StateExplanationProvided,
	StateFeedbackGenerated,
	StateCompleted,
}

// AllSessionStates is the canonical set of accepted state strings.
var AllSessionStates = append(append([]SessionState{}, HappyPath...), StateAbandoned, StateError)

// IsTerminal reports whether no forward transition is accepted from s.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateAbandoned || s == StateError
}

// Valid reports whether s is a known state.
func (s SessionState) Valid() bool {
	for _, v := range AllSessionStates {
		if v == s {
			return true
		}
	}
	return false
}

// Interface tags where a session was started from.
const (
	InterfaceCLI = "cli"
	InterfaceWeb = "web"
	InterfaceAPI = "api"
)

// EventType classifies rows of the session event log.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventError       EventType = "error"
	EventUserAction  EventType = "user_action"
)
