package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/domain"
)

// errAborted is returned when the trainee cancels a prompt.
var errAborted = errors.New("aborted by user")

// asker collects the trainee's answer.
type asker interface {
	Choice(ctx context.Context, c domain.Choices) (domain.Choice, error)
	Explanation(ctx context.Context) (string, error)
}

// lineAsker reads answers line by line, for pipes and dumb terminals.
type lineAsker struct {
	in  io.Reader
	out io.Writer
}

func (a lineAsker) Choice(ctx context.Context, c domain.Choices) (domain.Choice, error) {
	for {
		line, err := a.prompt(ctx, "Your choice (A-D): ")
		if err != nil {
			return 0, err
		}
		choice, err := domain.ParseChoice(line)
		if err == nil {
			return choice, nil
		}
		fmt.Fprintln(a.out, formatter.StyleRed.Render(err.Error()))
	}
}

func (a lineAsker) Explanation(ctx context.Context) (string, error) {
	for {
		line, err := a.prompt(ctx, "Explain your reasoning: ")
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		err = domain.ValidateExplanation(line)
		if err == nil {
			return line, nil
		}
		fmt.Fprintln(a.out, formatter.StyleRed.Render(err.Error()))
	}
}

func (a lineAsker) prompt(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errAborted
	}
	fmt.Fprint(a.out, message)
	line, err := readPromptLine(a.in)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", errAborted
		}
		return "", err
	}
	return line, nil
}

// readPromptLine reads until either LF or CR so Enter works in normal and
// raw terminal modes.
func readPromptLine(in io.Reader) (string, error) {
	if in == nil {
		return "", io.EOF
	}
	var buf []byte
	var one [1]byte
	for {
		n, err := in.Read(one[:])
		if n > 0 {
			switch one[0] {
			case '\n', '\r':
				return string(buf), nil
			default:
				buf = append(buf, one[0])
			}
		}
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), nil
			}
			return string(buf), err
		}
	}
}

// formAsker uses huh forms on an interactive terminal.
type formAsker struct{}

func (formAsker) Choice(ctx context.Context, c domain.Choices) (domain.Choice, error) {
	var picked domain.Choice
	opts := make([]huh.Option[domain.Choice], len(c.Options))
	for i, text := range c.Options {
		choice := domain.Choice(i)
		opts[i] = huh.NewOption(choice.Letter()+") "+formatter.Truncate(text, 72), choice)
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[domain.Choice]().
			Title("Your choice").
			Options(opts...).
			Value(&picked),
	)).WithTheme(pisteHuhTheme()).WithShowHelp(false)
	if err := runForm(ctx, form); err != nil {
		return 0, err
	}
	return picked, nil
}

func (formAsker) Explanation(ctx context.Context) (string, error) {
	var text string
	form := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Explain your reasoning").
			Description(fmt.Sprintf("At least %d characters.", domain.MinExplanationLen)).
			Value(&text).
			Validate(func(s string) error { return domain.ValidateExplanation(strings.TrimSpace(s)) }),
	)).WithTheme(pisteHuhTheme()).WithShowHelp(false)
	if err := runForm(ctx, form); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func runForm(ctx context.Context, form *huh.Form) error {
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return errAborted
	}
	return err
}

func pisteHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	return t
}
