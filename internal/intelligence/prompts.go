package intelligence

// System prompts per generation step. The user prompt comes from the
// rendered template.
const (
	scenarioSystemPrompt = "You are an expert epee fencing coach creating tactical scenarios."
	choicesSystemPrompt  = "You are an expert epee fencing coach creating strategic options for tactical scenarios."
	feedbackSystemPrompt = "You are an expert epee fencing coach providing detailed tactical feedback."
	editorSystemPrompt   = "You are an expert editor who rewrites fencing content to be clearer and more understandable while preserving all technical accuracy."
)

// Default sampling temperatures per step.
const (
	ScenarioTemperature = 0.7
	ChoicesTemperature  = 0.5
	FeedbackTemperature = 0.3
	EditorTemperature   = 0.3
)
