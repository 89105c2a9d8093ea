// Package intelligence turns rendered prompts into validated training
// content through a text-generation backend.
package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/llm"
)

// Gateway produces scenarios, choices and feedback from prompts.
// Every failure is a *GatewayError.
type Gateway interface {
	GenerateScenario(ctx context.Context, prompt string, temperature float64) (domain.Scenario, error)
	GenerateChoices(ctx context.Context, prompt string, temperature float64) (domain.Choices, error)
	GenerateFeedback(ctx context.Context, prompt string, temperature float64) (domain.Feedback, error)

	// EditChallenge rewrites scenario and options for readability. The
	// recommended index always matches original.
	EditChallenge(ctx context.Context, prompt string, original domain.Challenge) (domain.Challenge, error)

	// EditFeedback rewrites the coaching texts. Scores always match original.
	EditFeedback(ctx context.Context, prompt string, original domain.Feedback) (domain.Feedback, error)

	// Model names the backend model for session bookkeeping.
	Model() string
}

type llmGateway struct {
	client llm.LLMClient
	model  string
}

// NewGateway creates a Gateway backed by an LLM client.
func NewGateway(client llm.LLMClient, model string) Gateway {
	return &llmGateway{client: client, model: model}
}

func (g *llmGateway) Model() string { return g.model }

var (
	scenarioFields = []string{"scenario"}
	choicesFields  = []string{"options", "recommend"}
	feedbackFields = []string{
		"score_clock_pressure", "score_touch_quality", "score_initiative",
		"score_opponent_habits", "score_skill_alignment", "score_piste_geography",
		"score_external_factors", "score_fatigue_management", "score_information_value",
		"score_psychological_momentum",
		"acknowledgment", "analysis", "advanced_concepts", "bridge_to_mastery",
	}
	challengeFields = []string{"scenario", "choices"}
)

func (g *llmGateway) GenerateScenario(ctx context.Context, prompt string, temperature float64) (domain.Scenario, error) {
	return generate(ctx, g.client, "scenario", llm.TaskScenario, scenarioSystemPrompt, prompt, temperature, scenarioFields, domain.Scenario.Validate)
}

func (g *llmGateway) GenerateChoices(ctx context.Context, prompt string, temperature float64) (domain.Choices, error) {
	return generate(ctx, g.client, "choices", llm.TaskChoices, choicesSystemPrompt, prompt, temperature, choicesFields, domain.Choices.Validate)
}

func (g *llmGateway) GenerateFeedback(ctx context.Context, prompt string, temperature float64) (domain.Feedback, error) {
	return generate(ctx, g.client, "feedback", llm.TaskFeedback, feedbackSystemPrompt, prompt, temperature, feedbackFields, domain.Feedback.Validate)
}

func (g *llmGateway) EditChallenge(ctx context.Context, prompt string, original domain.Challenge) (domain.Challenge, error) {
	edited, err := generate[domain.Challenge](ctx, g.client, "challenge edit", llm.TaskEdit, editorSystemPrompt, prompt, EditorTemperature, challengeFields, nil)
	if err != nil {
		return domain.Challenge{}, err
	}
	edited.Choices.Recommend = original.Choices.Recommend
	if err := edited.Validate(); err != nil {
		return domain.Challenge{}, &GatewayError{Op: "challenge edit", Kind: KindWrongShape, Err: err}
	}
	return edited, nil
}

func (g *llmGateway) EditFeedback(ctx context.Context, prompt string, original domain.Feedback) (domain.Feedback, error) {
	edited, err := generate[domain.Feedback](ctx, g.client, "feedback edit", llm.TaskEdit, editorSystemPrompt, prompt, EditorTemperature,
		[]string{"acknowledgment", "analysis", "advanced_concepts", "bridge_to_mastery"}, nil)
	if err != nil {
		return domain.Feedback{}, err
	}
	out := original
	out.Acknowledgment = edited.Acknowledgment
	out.Analysis = edited.Analysis
	out.AdvancedConcepts = edited.AdvancedConcepts
	out.BridgeToMastery = edited.BridgeToMastery
	if err := out.Validate(); err != nil {
		return domain.Feedback{}, &GatewayError{Op: "feedback edit", Kind: KindWrongShape, Err: err}
	}
	return out, nil
}

// generate runs one structured call: request, extract, require fields,
// decode, validate.
func generate[T any](ctx context.Context, client llm.LLMClient, op string, task llm.TaskType, system, prompt string, temperature float64, fields []string, validate func(T) error) (T, error) {
	var zero T

	resp, err := client.Generate(ctx, llm.GenerateRequest{
		Task:         task,
		SystemPrompt: system,
		UserPrompt:   prompt,
		Temperature:  &temperature,
		JSON:         true,
	})
	if err != nil {
		return zero, &GatewayError{Op: op, Kind: KindUnavailable, Err: err}
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" || strings.TrimSpace(resp.Text) == "null" {
		return zero, &GatewayError{Op: op, Kind: KindNullResult, Err: errors.New("empty response")}
	}

	obj, err := llm.ExtractObject(resp.Text)
	if err != nil {
		return zero, classify(op, err)
	}
	if err := llm.RequireFields(obj, fields...); err != nil {
		return zero, classify(op, err)
	}

	out, err := llm.ExtractJSON[T](obj, validate)
	if err != nil {
		return zero, classify(op, err)
	}
	return out, nil
}

// MarshalContent renders a value as indented JSON for the editor template.
func MarshalContent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling edit content: %w", err)
	}
	return string(data), nil
}
