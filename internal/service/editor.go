package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/intelligence"
	"github.com/alexanderramin/pistemind/internal/prompt"
)

type editor struct {
	gateway intelligence.Gateway
	prompts *prompt.Loader
}

// NewPresenter returns a Presenter that runs stored content through the
// gateway's editing pass.
func NewPresenter(gateway intelligence.Gateway, prompts *prompt.Loader) Presenter {
	return &editor{gateway: gateway, prompts: prompts}
}

func (e *editor) Challenge(ctx context.Context, sess *domain.TrainingSession) (domain.Challenge, error) {
	if sess.Scenario == nil || sess.Choices == nil {
		return domain.Challenge{}, missing(sess.ID, "scenario and choices")
	}
	original := domain.Challenge{Scenario: *sess.Scenario, Choices: *sess.Choices}
	p, err := e.render("scenario and options", original)
	if err != nil {
		return domain.Challenge{}, err
	}
	return e.gateway.EditChallenge(ctx, p, original)
}

func (e *editor) Feedback(ctx context.Context, sess *domain.TrainingSession) (domain.Feedback, error) {
	if sess.Feedback == nil {
		return domain.Feedback{}, missing(sess.ID, "feedback")
	}
	p, err := e.render("coaching feedback", *sess.Feedback)
	if err != nil {
		return domain.Feedback{}, err
	}
	return e.gateway.EditFeedback(ctx, p, *sess.Feedback)
}

func (e *editor) render(kind string, v any) (string, error) {
	content, err := intelligence.MarshalContent(v)
	if err != nil {
		return "", err
	}
	out, err := e.prompts.Render(prompt.Editor, map[string]any{"Kind": kind, "Content": content})
	if err != nil {
		return "", fmt.Errorf("rendering editor prompt: %w", err)
	}
	return out, nil
}
