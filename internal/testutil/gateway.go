package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/intelligence"
)

var _ intelligence.Gateway = (*FakeGateway)(nil)

// FakeGateway returns fixtures, or the configured errors, and records the
// prompts it receives.
type FakeGateway struct {
	ScenarioErr error
	ChoicesErr  error
	FeedbackErr error
	EditErr     error

	mu      sync.Mutex
	prompts map[string][]string
	temps   map[string][]float64
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		prompts: map[string][]string{},
		temps:   map[string][]float64{},
	}
}

func (f *FakeGateway) record(op, prompt string, temp float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts[op] = append(f.prompts[op], prompt)
	f.temps[op] = append(f.temps[op], temp)
}

// Prompts returns the prompts received for op.
func (f *FakeGateway) Prompts(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts[op]...)
}

// Temperatures returns the temperatures received for op.
func (f *FakeGateway) Temperatures(op string) []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.temps[op]...)
}

func (f *FakeGateway) GenerateScenario(ctx context.Context, prompt string, temperature float64) (domain.Scenario, error) {
	f.record("scenario", prompt, temperature)
	if err := ctx.Err(); err != nil {
		return domain.Scenario{}, err
	}
	if f.ScenarioErr != nil {
		return domain.Scenario{}, f.ScenarioErr
	}
	return ScenarioFixture(), nil
}

func (f *FakeGateway) GenerateChoices(ctx context.Context, prompt string, temperature float64) (domain.Choices, error) {
	f.record("choices", prompt, temperature)
	if f.ChoicesErr != nil {
		return domain.Choices{}, f.ChoicesErr
	}
	return ChoicesFixture(), nil
}

func (f *FakeGateway) GenerateFeedback(ctx context.Context, prompt string, temperature float64) (domain.Feedback, error) {
	f.record("feedback", prompt, temperature)
	if f.FeedbackErr != nil {
		return domain.Feedback{}, f.FeedbackErr
	}
	return FeedbackFixture(), nil
}

// EditChallenge returns original with its scenario prefixed by "Edited: ".
func (f *FakeGateway) EditChallenge(ctx context.Context, prompt string, original domain.Challenge) (domain.Challenge, error) {
	f.record("edit", prompt, intelligence.EditorTemperature)
	if f.EditErr != nil {
		return domain.Challenge{}, f.EditErr
	}
	out := original
	out.Scenario.Text = "Edited: " + original.Scenario.Text
	return out, nil
}

// EditFeedback returns original with its analysis prefixed by "Edited: ".
func (f *FakeGateway) EditFeedback(ctx context.Context, prompt string, original domain.Feedback) (domain.Feedback, error) {
	f.record("edit", prompt, intelligence.EditorTemperature)
	if f.EditErr != nil {
		return domain.Feedback{}, f.EditErr
	}
	out := original
	out.Analysis = "Edited: " + original.Analysis
	return out, nil
}

func (f *FakeGateway) Model() string { return "fake-model" }
