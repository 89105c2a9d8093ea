package llm

import (
	"errors"
	"fmt"
)

// TaskType identifies the kind of generation task being performed.
type TaskType string

const (
	TaskScenario TaskType = "scenario"
	TaskChoices  TaskType = "choices"
	TaskFeedback TaskType = "feedback"
	TaskEdit     TaskType = "edit"
)

// AllTasks lists the task types in pipeline order.
var AllTasks = []TaskType{TaskScenario, TaskChoices, TaskFeedback, TaskEdit}

// Provider selects the generation backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "gemini"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// LLMConfig holds all configuration for the generation subsystem.
type LLMConfig struct {
	Provider   Provider                `yaml:"provider"`
	LogCalls   bool                    `yaml:"log_calls"`
	Endpoint   string                  `yaml:"endpoint"`
	Model      string                  `yaml:"model"`
	APIKey     string                  `yaml:"-"`
	TimeoutMs  int                     `yaml:"timeout_ms"`
	MaxRetries int                     `yaml:"max_retries"`
	Tasks      map[TaskType]TaskConfig `yaml:"tasks"`
}

// DefaultConfig returns an LLMConfig for a local Ollama instance.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:   ProviderOllama,
		LogCalls:   true,
		Endpoint:   "http://localhost:11434",
		Model:      "llama3.2",
		TimeoutMs:  60000,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskScenario: {Temperature: 0.7, MaxTokens: 1024},
			TaskChoices:  {Temperature: 0.5, MaxTokens: 1024},
			TaskFeedback: {Temperature: 0.3, MaxTokens: 2048, TimeoutMs: 120000},
			TaskEdit:     {Temperature: 0.3, MaxTokens: 2048},
		},
	}
}

// TaskTimeout returns the effective timeout in milliseconds for a task.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

// Temperature returns the configured temperature for a task.
func (c LLMConfig) Temperature(task TaskType) float64 {
	return c.Tasks[task].Temperature
}

func (c LLMConfig) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderOllama:
		if c.Endpoint == "" {
			errs = append(errs, errors.New("ollama endpoint is required"))
		}
	case ProviderGemini:
		if c.APIKey == "" {
			errs = append(errs, errors.New("gemini api key is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMs))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	for task, tc := range c.Tasks {
		if tc.Temperature < 0 || tc.Temperature > 2 {
			errs = append(errs, fmt.Errorf("task %s: temperature %.2f out of range 0..2", task, tc.Temperature))
		}
	}
	return errors.Join(errs...)
}
