package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/intelligence"
	"github.com/alexanderramin/pistemind/internal/prompt"
	"github.com/alexanderramin/pistemind/internal/testutil"
)

func TestPresenter_ChallengeLeavesStoredCopy(t *testing.T) {
	gw := testutil.NewFakeGateway()
	p := NewPresenter(gw, prompt.NewLoader(""))
	sess := testutil.NewTestTrainingSession(testutil.WithState(domain.StateScenarioGenerated), testutil.WithChallenge())

	edited, err := p.Challenge(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, "Edited: "+testutil.ScenarioFixture().Text, edited.Scenario.Text)
	assert.Equal(t, testutil.ScenarioFixture().Text, sess.Scenario.Text)

	prompts := gw.Prompts("edit")
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "scenario and options")
	assert.Contains(t, prompts[0], `"recommend": 0`)
	assert.Equal(t, []float64{intelligence.EditorTemperature}, gw.Temperatures("edit"))
}

func TestPresenter_FeedbackKeepsScores(t *testing.T) {
	gw := testutil.NewFakeGateway()
	p := NewPresenter(gw, prompt.NewLoader(""))
	sess := testutil.NewTestTrainingSession(testutil.WithCompleted(domain.ChoiceA, 0, 0))

	edited, err := p.Feedback(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, sess.Feedback.Total(), edited.Total())
	assert.Contains(t, edited.Analysis, "Edited: ")
}

func TestPresenter_MissingContent(t *testing.T) {
	p := NewPresenter(testutil.NewFakeGateway(), prompt.NewLoader(""))
	sess := testutil.NewTestTrainingSession()

	_, err := p.Challenge(context.Background(), sess)
	assert.ErrorIs(t, err, ErrMissingSessionData)
	_, err = p.Feedback(context.Background(), sess)
	assert.ErrorIs(t, err, ErrMissingSessionData)
}

func TestPresenter_GatewayError(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.EditErr = errors.New("editor offline")
	p := NewPresenter(gw, prompt.NewLoader(""))
	sess := testutil.NewTestTrainingSession(testutil.WithChallenge())

	_, err := p.Challenge(context.Background(), sess)
	assert.ErrorIs(t, err, gw.EditErr)
}
