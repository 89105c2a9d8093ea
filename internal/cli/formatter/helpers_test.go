package formatter

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"just now", now.Add(-10 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"yesterday", now.Add(-30 * time.Hour), "Yesterday"},
		{"older", time.Date(2025, 9, 30, 12, 0, 0, 0, time.Local), "Sep 30, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanTimestampFrom(tt.input, now))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "1m 05s", FormatDuration(65*time.Second))
	assert.Equal(t, "12m 00s", FormatDuration(12*time.Minute+200*time.Millisecond))
	assert.Equal(t, "--", stripANSI(FormatOptionalDuration(nil)))
}

func TestTruncID(t *testing.T) {
	assert.Equal(t, "abcdefgh", stripANSI(TruncID("abcdefgh-1234")))
	assert.Equal(t, "abc", stripANSI(TruncID("abc")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "a long...", Truncate("a long sentence", 9))
}

func TestWrap(t *testing.T) {
	got := Wrap("one two three four five", 9)
	assert.Equal(t, "one two\nthree\nfour five", got)
	assert.Equal(t, "para one\n\npara two", Wrap("para one\n\npara two", 20))
	assert.Equal(t, "x", Wrap("  x  ", 0))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", Indent("a\n\nb", 2))
}

func TestRenderTable_AlignsStyledCells(t *testing.T) {
	out := stripANSI(RenderTable([]string{"ID", "STATE"}, [][]string{
		{StyleDim.Render("abc"), "created"},
		{"abcdefgh", StyleRed.Render("error")},
	}))
	assert.Equal(t,
		"ID        STATE\n"+
			"────────  ───────\n"+
			"abc       created\n"+
			"abcdefgh  error\n", out)
	assert.Empty(t, RenderTable(nil, nil))
}
