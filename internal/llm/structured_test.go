package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testChoices struct {
	Options   []string `json:"options"`
	Recommend int      `json:"recommend"`
}

type testScore struct {
	Weight float64 `json:"weight"`
}

func TestExtractJSON_CleanJSON(t *testing.T) {
	raw := `{"options":["a","b","c","d"],"recommend":2}`
	result, err := ExtractJSON[testChoices](raw, nil)
	require.NoError(t, err)
	assert.Len(t, result.Options, 4)
	assert.Equal(t, 2, result.Recommend)
}

func TestExtractJSON_FencedJSON(t *testing.T) {
	raw := "```json\n{\"options\":[\"a\",\"b\",\"c\",\"d\"],\"recommend\":1}\n```"
	result, err := ExtractJSON[testChoices](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recommend)
}

func TestExtractJSON_SurroundingText(t *testing.T) {
	raw := "Here are the options:\n{\"options\":[\"a\",\"b\",\"c\",\"d\"],\"recommend\":3}\nGood luck on the piste!"
	result, err := ExtractJSON[testChoices](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Recommend)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"options":["feint {high}","b","c","d"],"recommend":0}`
	result, err := ExtractJSON[testChoices](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "feint {high}", result.Options[0])
}

func TestExtractJSON_CommentsAndBareDecimals(t *testing.T) {
	raw := "{\n  // model chatter\n  \"weight\": .5 /* half */\n}"
	result, err := ExtractJSON[testScore](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, result.Weight)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[testChoices]("I cannot help with that.", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_InvalidJSON(t *testing.T) {
	_, err := ExtractJSON[testChoices](`{"options": broken}`, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidationFailure(t *testing.T) {
	raw := `{"options":["a","b","c","d"],"recommend":7}`
	validator := func(c testChoices) error {
		if c.Recommend < 0 || c.Recommend > 3 {
			return fmt.Errorf("recommend out of range: %d", c.Recommend)
		}
		return nil
	}
	_, err := ExtractJSON(raw, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRequireFields(t *testing.T) {
	err := RequireFields(`{"options":["a"],"recommend":null}`, "options", "recommend", "extra")
	var mf *MissingFieldsError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, []string{"recommend", "extra"}, mf.Fields)

	assert.NoError(t, RequireFields(`{"scenario":"x"}`, "scenario"))
	assert.ErrorIs(t, RequireFields(`[1,2]`, "scenario"), ErrInvalidOutput)
}
