package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/service"
)

const browsePageSize = 100

func newBrowseCmd(app *App) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse past sessions in a full-screen viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.SessionFilter{}
			if userID != "" {
				filter.UserID = &userID
			}
			m := newBrowseModel(cmd.Context(), app.Sessions, filter)
			_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Only sessions for this user")
	return cmd
}

type browseKeys struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Abandon key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var defaultBrowseKeys = browseKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Abandon: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "abandon")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type sessionsLoadedMsg struct {
	list []domain.SessionSummary
	err  error
}

type sessionLoadedMsg struct {
	sess *domain.TrainingSession
	err  error
}

// browseModel lists sessions and opens one in a scrollable detail pane.
type browseModel struct {
	ctx      context.Context
	sessions service.SessionService
	filter   domain.SessionFilter
	keys     browseKeys

	list   []domain.SessionSummary
	cursor int
	detail *domain.TrainingSession
	pane   viewport.Model

	width, height int
	loading       bool
	status        string
	err           error
	quitting      bool
}

func newBrowseModel(ctx context.Context, sessions service.SessionService, filter domain.SessionFilter) *browseModel {
	return &browseModel{
		ctx:      ctx,
		sessions: sessions,
		filter:   filter,
		keys:     defaultBrowseKeys,
		pane:     viewport.New(80, 20),
		width:    80,
		height:   24,
		loading:  true,
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadList()
}

func (m *browseModel) loadList() tea.Cmd {
	return func() tea.Msg {
		list, err := m.sessions.List(m.ctx, m.filter, browsePageSize, 0)
		return sessionsLoadedMsg{list: list, err: err}
	}
}

func (m *browseModel) loadSession(id string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.sessions.Get(m.ctx, id)
		return sessionLoadedMsg{sess: sess, err: err}
	}
}

func (m *browseModel) abandon(id string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.sessions.Abandon(m.ctx, id, "Abandoned from browser")
		return sessionLoadedMsg{sess: sess, err: err}
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.pane.Width = msg.Width
		m.pane.Height = max(msg.Height-3, 1)
		return m, nil

	case sessionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.list = msg.list
		if m.cursor >= len(m.list) {
			m.cursor = max(len(m.list)-1, 0)
		}
		return m, nil

	case sessionLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.detail = msg.sess
		m.pane.SetContent(formatter.FormatSessionDetail(msg.sess))
		m.pane.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.list) {
			m.loading = true
			return m, m.loadSession(m.list[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadList()
	}
	return m, nil
}

func (m *browseModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.detail = nil
		m.status = ""
		m.loading = true
		return m, m.loadList()
	case key.Matches(msg, m.keys.Abandon):
		if !m.detail.State.IsTerminal() {
			m.loading = true
			return m, m.abandon(m.detail.ID)
		}
		m.status = "session already " + string(m.detail.State)
		return m, nil
	}
	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	if m.quitting {
		return ""
	}
	if m.detail != nil {
		return m.pane.View() + "\n" + m.footer(m.keys.Up, m.keys.Down, m.keys.Abandon, m.keys.Back, m.keys.Quit)
	}

	var b strings.Builder
	b.WriteString(formatter.Header("Sessions"))
	b.WriteString("\n\n")
	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render(m.err.Error()) + "\n")
	case m.loading && m.list == nil:
		b.WriteString(formatter.Dim("Loading...") + "\n")
	case len(m.list) == 0:
		b.WriteString(formatter.Dim("No sessions yet. Run `pistemind train` to start one.") + "\n")
	default:
		start, end := m.window()
		for i := start; i < end; i++ {
			s := m.list[i]
			cursor := "  "
			if i == m.cursor {
				cursor = formatter.StyleHeader.Render("▸ ")
			}
			fmt.Fprintf(&b, "%s%s  %-16s %s\n", cursor, formatter.TruncID(s.ID),
				s.CreatedAt.Local().Format("Jan 2 15:04"), formatter.StatePill(s.State))
		}
	}
	b.WriteString("\n" + m.footer(m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Refresh, m.keys.Quit))
	return b.String()
}

// window returns the slice of rows that fits the terminal, keeping the
// cursor visible.
func (m *browseModel) window() (int, int) {
	rows := max(m.height-5, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return start, min(start+rows, len(m.list))
}

func (m *browseModel) footer(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+formatter.Dim(h.Desc))
	}
	line := strings.Join(parts, formatter.Dim(" • "))
	if m.status != "" {
		line = formatter.StyleYellow.Render(m.status) + "  " + line
	}
	return line
}
