package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/service"
	"github.com/alexanderramin/pistemind/internal/teatest"
)

func TestBrowse_EmptyList(t *testing.T) {
	app, _ := testApp(t)
	m := newBrowseModel(context.Background(), app.Sessions, domain.SessionFilter{})
	assert.Contains(t, m.View(), "Loading...")

	d := teatest.New(t, m)
	assert.Contains(t, d.View(), "No sessions yet")
}

func TestBrowse_OpenAbandonAndBack(t *testing.T) {
	app, _ := testApp(t)
	ctx := context.Background()
	first, err := app.Sessions.Create(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)
	second, err := app.Sessions.Create(ctx, service.CreateSessionRequest{})
	require.NoError(t, err)

	m := newBrowseModel(ctx, app.Sessions, domain.SessionFilter{})
	d := teatest.New(t, m, teatest.WithSize(100, 30))
	require.Len(t, m.list, 2)
	assert.Contains(t, d.View(), first.ID[:8])
	assert.Contains(t, d.View(), second.ID[:8])

	d.Press("j")
	assert.Equal(t, 1, m.cursor)
	d.Press("down")
	assert.Equal(t, 1, m.cursor)
	d.Press("k")
	assert.Equal(t, 0, m.cursor)

	d.Press("enter")
	require.NotNil(t, m.detail)
	target := m.detail.ID
	assert.Contains(t, d.View(), "abandon")

	d.Press("a")
	require.NotNil(t, m.detail)
	assert.Equal(t, domain.StateAbandoned, m.detail.State)

	d.Press("a")
	assert.Contains(t, d.View(), "session already abandoned")

	d.Press("esc")
	assert.Nil(t, m.detail)
	var found bool
	for _, s := range m.list {
		if s.ID == target {
			found = true
			assert.Equal(t, domain.StateAbandoned, s.State)
		}
	}
	assert.True(t, found)
}

func TestBrowse_ResizeAndQuit(t *testing.T) {
	app, _ := testApp(t)
	m := newBrowseModel(context.Background(), app.Sessions, domain.SessionFilter{})
	d := teatest.New(t, m, teatest.WithSize(100, 10))
	assert.Equal(t, 100, m.pane.Width)
	assert.Equal(t, 7, m.pane.Height)

	d.Press("q")
	assert.True(t, d.Quitting)
	assert.Empty(t, d.View())
}

func TestBrowse_WindowKeepsCursorVisible(t *testing.T) {
	m := &browseModel{height: 8, list: make([]domain.SessionSummary, 10)}
	m.cursor = 6
	start, end := m.window()
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)
}
