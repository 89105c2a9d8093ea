package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/testutil"
)

func TestReadPromptLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "lf", input: "b\n", want: "b"},
		{name: "cr", input: "b\r", want: "b"},
		{name: "eof after text", input: "b", want: "b"},
		{name: "eof only", input: "", wantErr: io.EOF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := readPromptLine(strings.NewReader(tc.input))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := readPromptLine(nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineAsker_Choice(t *testing.T) {
	var out bytes.Buffer
	ask := lineAsker{in: strings.NewReader("z\n  d \n"), out: &out}

	got, err := ask.Choice(context.Background(), testutil.ChoicesFixture())
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceD, got)
	assert.Equal(t, 2, strings.Count(out.String(), "Your choice (A-D): "))
}

func TestLineAsker_ExplanationTrimsAndValidates(t *testing.T) {
	var out bytes.Buffer
	ask := lineAsker{in: strings.NewReader("short\n   " + explanation + "   \n"), out: &out}

	got, err := ask.Explanation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, explanation, got)
	assert.Contains(t, out.String(), "invalid explanation")
}

func TestLineAsker_AbortsOnEOFAndCancel(t *testing.T) {
	ask := lineAsker{in: strings.NewReader(""), out: io.Discard}
	_, err := ask.Choice(context.Background(), testutil.ChoicesFixture())
	assert.ErrorIs(t, err, errAborted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ask = lineAsker{in: strings.NewReader("a\n"), out: io.Discard}
	_, err = ask.Explanation(ctx)
	assert.ErrorIs(t, err, errAborted)
}
